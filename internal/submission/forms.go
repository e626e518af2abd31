// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package submission

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/olegiv/voyage-cms/internal/sanitize"
)

// DateLayout is the wire format of travel dates.
const DateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^[+0-9 ()-]{7,20}$`)

// Honeypot is embedded in every public form. Browsers leave the hidden
// field empty.
type Honeypot struct {
	Website string `json:"website"`
}

// Tripped reports whether the hidden field was filled in.
func (h Honeypot) Tripped() bool {
	return strings.TrimSpace(h.Website) != ""
}

// ContactForm is the body of POST /api/contact.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Honeypot
}

func (f *ContactForm) sanitize() {
	sanitize.Fields(&f.Name, &f.Phone, &f.Subject, &f.Message)
	f.Email = sanitize.Email(f.Email)
}

// Validate implements validation.Validatable.
func (f ContactForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Phone, validation.Match(phonePattern)),
		validation.Field(&f.Subject, validation.Required, validation.Length(5, 200)),
		validation.Field(&f.Message, validation.Required, validation.Length(10, 5000)),
	)
}

// NewsletterForm is the body of POST /api/newsletter.
type NewsletterForm struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Honeypot
}

func (f *NewsletterForm) sanitize() {
	sanitize.Fields(&f.Name, &f.Source)
	f.Email = sanitize.Email(f.Email)
}

// Validate implements validation.Validatable.
func (f NewsletterForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Name, validation.Length(0, 100)),
		validation.Field(&f.Source, validation.Length(0, 50)),
	)
}

// UnsubscribeForm is the body of POST /api/newsletter/unsubscribe.
type UnsubscribeForm struct {
	Email string `json:"email"`
}

func (f *UnsubscribeForm) sanitize() {
	f.Email = sanitize.Email(f.Email)
}

// Validate implements validation.Validatable.
func (f UnsubscribeForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
	)
}

// CustomPackageForm is the body of POST /api/custom-packages.
type CustomPackageForm struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Destinations []string `json:"destinations"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Travellers   int      `json:"travellers"`
	Budget       string   `json:"budget"`
	Notes        string   `json:"notes"`
	Honeypot
}

func (f *CustomPackageForm) sanitize() {
	sanitize.Fields(&f.Name, &f.Phone, &f.StartDate, &f.EndDate, &f.Budget, &f.Notes)
	f.Email = sanitize.Email(f.Email)
	f.Destinations = sanitize.Slice(f.Destinations)
}

// Validate implements validation.Validatable.
func (f CustomPackageForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Phone, validation.Match(phonePattern)),
		validation.Field(&f.Destinations,
			validation.Required,
			validation.Length(1, 10),
			validation.Each(validation.Length(1, 100)),
		),
		validation.Field(&f.StartDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&f.EndDate,
			validation.Required,
			validation.Date(DateLayout),
			validation.By(notBefore(f.StartDate, "must not be before the start date")),
		),
		validation.Field(&f.Travellers, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&f.Budget, validation.Length(0, 100)),
		validation.Field(&f.Notes, validation.Length(0, 5000)),
	)
}

// BookingForm is the body of POST /api/bookings.
type BookingForm struct {
	Package    string `json:"package"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	TravelDate string `json:"travel_date"`
	Travellers int    `json:"travellers"`
	Notes      string `json:"notes"`
	Honeypot
}

func (f *BookingForm) sanitize() {
	sanitize.Fields(&f.Package, &f.Name, &f.Phone, &f.TravelDate, &f.Notes)
	f.Email = sanitize.Email(f.Email)
}

// Validate implements validation.Validatable.
func (f BookingForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Package, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&f.TravelDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&f.Travellers, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&f.Notes, validation.Length(0, 5000)),
	)
}

// notBefore rejects a date that precedes start. Unparsable values are left
// to the Date rule.
func notBefore(start, message string) validation.RuleFunc {
	return func(value any) error {
		end, _ := value.(string)
		s, err1 := time.Parse(DateLayout, start)
		e, err2 := time.Parse(DateLayout, end)
		if err1 != nil || err2 != nil {
			return nil
		}
		if e.Before(s) {
			return errors.New(message)
		}
		return nil
	}
}

