// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/catalogue"
	"github.com/olegiv/voyage-cms/internal/config"
	"github.com/olegiv/voyage-cms/internal/handler"
	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/ratelimit"
	"github.com/olegiv/voyage-cms/internal/section"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/submission"
)

// uploadsMaxAge is how long browsers may cache uploaded images. Storage
// keys embed a UUID, so a key never changes content.
const uploadsMaxAge = 30 * 24 * time.Hour

// app holds the wired services the HTTP routes depend on.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB

	sessions   *scs.SessionManager
	limits     *ratelimit.Set
	lockout    *auth.Lockout
	apiLimiter *middleware.GlobalRateLimiter

	events      *service.EventService
	sections    *section.Service
	catalogue   *catalogue.Service
	submissions *submission.Service
	images      *service.ImageService
	audit       *service.AuditService
	health      *handler.HealthHandler

	// uploadsDir is served under /uploads when images are stored locally.
	uploadsDir string
}

func (a *app) routes() http.Handler {
	rs := handler.Responder{Logger: a.logger, IsDev: a.cfg.IsDevelopment()}

	authHandler := handler.NewAuthHandler(rs, a.db, a.sessions, a.limits.Login, a.lockout, a.events)
	sectionsHandler := handler.NewSectionsHandler(rs, a.sections)
	catalogueHandler := handler.NewCatalogueHandler(rs, a.catalogue)
	submissionsHandler := handler.NewSubmissionsHandler(rs, a.submissions)
	imagesHandler := handler.NewImagesHandler(rs, a.images)
	adminHandler := handler.NewAdminHandler(rs, a.db, a.audit, a.events)

	securityConfig := middleware.DefaultSecurityHeadersConfig(a.cfg.IsDevelopment())
	securityConfig.ExcludePaths = []string{"/uploads/"}

	csrf := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(a.cfg.SessionSecret), a.cfg.CORSOrigins, a.cfg.IsDevelopment()))

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(securityConfig))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(a.sessions.LoadAndSave)
	r.Use(middleware.LoadIdentity(a.sessions, a.db))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", a.health.Health)

	if a.uploadsDir != "" {
		uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(a.uploadsDir)))
		r.Handle("/uploads/*", middleware.StaticCache(uploadsMaxAge, true)(uploads))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
			ExposedHeaders:   []string{"Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(a.apiLimiter.Middleware())

		// Public content
		r.Get("/sections/{type}", sectionsHandler.PublicGet)
		r.Get("/sections/{type}/items", sectionsHandler.PublicItems)
		r.Get("/destinations", catalogueHandler.PublicDestinations)
		r.Get("/destinations/{slug}", catalogueHandler.PublicDestination)
		r.Get("/packages", catalogueHandler.PublicPackages)
		r.Get("/packages/{slug}", catalogueHandler.PublicPackage)

		// Public submissions
		r.Post("/contact", submissionsHandler.Contact)
		r.Post("/newsletter", submissionsHandler.Subscribe)
		r.Post("/newsletter/unsubscribe", submissionsHandler.Unsubscribe)
		r.Post("/bookings", submissionsHandler.Book)
		r.Post("/custom-packages", submissionsHandler.CustomPackage)

		r.Route("/auth", func(r chi.Router) {
			r.Use(csrf)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/cms", func(r chi.Router) {
			r.Use(csrf)

			// Readable by anyone; the mode falls back to public without
			// an editor identity.
			r.Get("/{section}", sectionsHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEditor)

				r.Patch("/{section}", sectionsHandler.Save)
				r.Get("/{section}/items", sectionsHandler.Items)
				r.Post("/{section}/items", sectionsHandler.CreateItem)
				r.Post("/{section}/items/reorder", sectionsHandler.Reorder)
				r.Patch("/{section}/items/{id}", sectionsHandler.UpdateItem)
				r.Delete("/{section}/items/{id}", sectionsHandler.DeleteItem)
				r.Post("/{section}/unpublish", sectionsHandler.Unpublish)
				r.Get("/{section}/revisions", sectionsHandler.Revisions)
				r.Post("/{section}/revisions/{revision}/restore", sectionsHandler.Restore)

				r.Get("/contact", submissionsHandler.ListContacts)
				r.Get("/contact/{id}", submissionsHandler.GetContact)
				r.Patch("/contact/{id}", submissionsHandler.UpdateContact)
				r.Delete("/contact/{id}", submissionsHandler.DeleteContact)
				r.Get("/newsletter", submissionsHandler.ListSubscriptions)
				r.Get("/custom-packages", submissionsHandler.ListCustomPackages)
				r.Get("/custom-packages/{id}", submissionsHandler.GetCustomPackage)
				r.Patch("/custom-packages/{id}", submissionsHandler.UpdateCustomPackage)
				r.Get("/bookings", submissionsHandler.ListBookings)
				r.Get("/bookings/{id}", submissionsHandler.GetBooking)
				r.Patch("/bookings/{id}", submissionsHandler.UpdateBooking)
				r.Delete("/bookings/{id}", submissionsHandler.DeleteBooking)

				r.Get("/destinations", catalogueHandler.ListDestinations)
				r.Post("/destinations", catalogueHandler.CreateDestination)
				r.Get("/destinations/{id}", catalogueHandler.GetDestination)
				r.Patch("/destinations/{id}", catalogueHandler.UpdateDestination)
				r.Delete("/destinations/{id}", catalogueHandler.DeleteDestination)
				r.Get("/packages", catalogueHandler.ListPackages)
				r.Post("/packages", catalogueHandler.CreatePackage)
				r.Get("/packages/{id}", catalogueHandler.GetPackage)
				r.Patch("/packages/{id}", catalogueHandler.UpdatePackage)
				r.Delete("/packages/{id}", catalogueHandler.DeletePackage)

				r.Get("/images", imagesHandler.List)
				r.Post("/images", imagesHandler.Upload)
				r.Patch("/images/{id}", imagesHandler.Update)
				r.Delete("/images/{id}", imagesHandler.Delete)

				r.Get("/audit", adminHandler.Audit)
				r.Get("/notifications", adminHandler.Notifications)
				r.Get("/events", adminHandler.Events)
			})
		})
	})

	return r
}
