package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the HTTP router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(middleware.Compress(5, "text/html", "application/json"))
	r.Use(secureHeaders)

	r.Get("/", h.HandleIndex)
	r.Get("/healthz", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Get("/status", h.HandleStatus)
		r.Get("/logs", h.HandleLogs)
		r.Get("/logs/stats", h.HandleLogStats)
	})
	return r
}
