// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mail

// Template keys. Editors override a default by publishing an email_template
// section item with the same key.
const (
	TemplateContactAdmin              = "contact_admin"
	TemplateContactConfirmation       = "contact_confirmation"
	TemplateNewsletterWelcome         = "newsletter_welcome"
	TemplateCustomPackageAdmin        = "custom_package_admin"
	TemplateCustomPackageConfirmation = "custom_package_confirmation"
	TemplateBookingAdmin              = "booking_admin"
	TemplateBookingConfirmation       = "booking_confirmation"
)

type templateSource struct {
	Subject string
	HTML    string
	Text    string
}

var defaultTemplates = map[string]templateSource{
	TemplateContactAdmin: {
		Subject: `New enquiry: {{ subject }}`,
		HTML: `<p>New contact enquiry from <strong>{{ name }}</strong> &lt;{{ email }}&gt;.</p>
{% if phone != "" %}<p>Phone: {{ phone }}</p>{% endif %}
<p><strong>{{ subject }}</strong></p>
<p>{{ message | newline_to_br }}</p>
<p style="color:#888">Reference {{ id }}{% if country != "" %} · {{ country }}{% endif %}</p>`,
		Text: `New contact enquiry from {{ name }} <{{ email }}>
{% if phone != "" %}Phone: {{ phone }}
{% endif %}
Subject: {{ subject }}

{{ message }}

Reference {{ id }}`,
	},
	TemplateContactConfirmation: {
		Subject: `We received your message`,
		HTML: `<p>Hi {{ name }},</p>
<p>Thank you for contacting {{ site_name }}. We received your message "{{ subject }}" and will reply within two working days.</p>`,
		Text: `Hi {{ name }},

Thank you for contacting {{ site_name }}. We received your message "{{ subject }}" and will reply within two working days.`,
	},
	TemplateNewsletterWelcome: {
		Subject: `Welcome to the {{ site_name }} newsletter`,
		HTML: `<p>Hi {% if name != "" %}{{ name }}{% else %}there{% endif %},</p>
<p>You are subscribed to travel news from {{ site_name }}.</p>`,
		Text: `Hi {% if name != "" %}{{ name }}{% else %}there{% endif %},

You are subscribed to travel news from {{ site_name }}.`,
	},
	TemplateCustomPackageAdmin: {
		Subject: `Custom package request from {{ name }}`,
		HTML: `<p><strong>{{ name }}</strong> &lt;{{ email }}&gt; asked for a custom package.</p>
<ul>
<li>Destinations: {{ destinations | join: ", " }}</li>
<li>Dates: {{ start_date }} to {{ end_date }}</li>
<li>Travellers: {{ travellers }}</li>
{% if budget != "" %}<li>Budget: {{ budget }}</li>{% endif %}
</ul>
{% if notes != "" %}<p>{{ notes | newline_to_br }}</p>{% endif %}
<p style="color:#888">Reference {{ id }}</p>`,
		Text: `{{ name }} <{{ email }}> asked for a custom package.

Destinations: {{ destinations | join: ", " }}
Dates: {{ start_date }} to {{ end_date }}
Travellers: {{ travellers }}
{% if budget != "" %}Budget: {{ budget }}
{% endif %}
{{ notes }}

Reference {{ id }}`,
	},
	TemplateCustomPackageConfirmation: {
		Subject: `Your custom trip request`,
		HTML: `<p>Hi {{ name }},</p>
<p>Thanks for your request for {{ destinations | join: ", " }} from {{ start_date }} to {{ end_date }}. A travel designer will send you a quote shortly.</p>`,
		Text: `Hi {{ name }},

Thanks for your request for {{ destinations | join: ", " }} from {{ start_date }} to {{ end_date }}. A travel designer will send you a quote shortly.`,
	},
	TemplateBookingAdmin: {
		Subject: `New booking: {{ package_title }}`,
		HTML: `<p><strong>{{ name }}</strong> &lt;{{ email }}&gt; booked <strong>{{ package_title }}</strong>.</p>
<ul>
<li>Travel date: {{ travel_date }}</li>
<li>Travellers: {{ travellers }}</li>
<li>Phone: {{ phone }}</li>
</ul>
{% if notes != "" %}<p>{{ notes | newline_to_br }}</p>{% endif %}
<p style="color:#888">Reference {{ id }}</p>`,
		Text: `{{ name }} <{{ email }}> booked {{ package_title }}.

Travel date: {{ travel_date }}
Travellers: {{ travellers }}
Phone: {{ phone }}

{{ notes }}

Reference {{ id }}`,
	},
	TemplateBookingConfirmation: {
		Subject: `Booking received: {{ package_title }}`,
		HTML: `<p>Hi {{ name }},</p>
<p>We received your booking for <strong>{{ package_title }}</strong> on {{ travel_date }} for {{ travellers }} traveller{% if travellers != 1 %}s{% endif %}. We will confirm availability within one working day.</p>`,
		Text: `Hi {{ name }},

We received your booking for {{ package_title }} on {{ travel_date }} for {{ travellers }} traveller{% if travellers != 1 %}s{% endif %}. We will confirm availability within one working day.`,
	},
}
