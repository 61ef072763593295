package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/route"
)

func addRoutes(r chi.Router, logger *slog.Logger, clients *Registry, broker *Broker, cat Catalog, opts Options) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Studio Hackathon Hub API", "/openapi.json", "/docs"))

	// Every /api route runs against the caller's browsing context.
	r.Route("/api", func(r chi.Router) {
		r.Use(clientMiddleware(clients, opts.CookieSecure))

		r.Get("/session", handleSession())
		r.Get("/route", handleRoute())
		r.Get("/notices", handleNotices())
		r.Get("/events", handleEvents(broker))
		r.Get("/ws", handleStream(broker, logger, originHosts(opts.CORSOrigins)))
		r.Post("/onboarding/role", handleSelectRole())

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", handleSignUp())
			r.Post("/signin", handleSignIn())
			r.Post("/verify", handleVerify())
			r.Post("/resend", handleResend())
			r.Post("/signout", handleSignOut())
			r.Get("/otp", handleOTPState())
			r.Post("/otp", handleOTPInput())
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSet(route.SetAuthenticated))
			r.Get("/hackathons", handleListHackathons(cat))
			r.Get("/hackathons/{id}", handleGetHackathon(cat))
			r.Get("/registration/personal", handleGetPersonal())
			r.Post("/registration/personal", handleSubmitPersonal())
			r.Post("/registration/education", handleSubmitEducation())
			r.Get("/registration/preview", handlePreview())
			r.Post("/registration/submit", handleSubmitRegistration())
		})
	})

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
		}
	}
}
