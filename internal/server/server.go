// Package server exposes the landing page and the contact-form API and
// orchestrates screening, validation and lead delivery per request.
package server

import (
	"context"
	"embed"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/config"
	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/model"
)

// ServiceName identifies this service in health responses and logs.
const ServiceName = "hochzeitsanzug-landing"

//go:embed pages/*.html
var pages embed.FS

// Screener is the bot screen applied before validation.
type Screener interface {
	Screen(ctx context.Context, sub model.Submission, remoteIP string) model.ScreenResult
}

// Submitter delivers a validated lead. It must never fail the request:
// the returned result is always accepted.
type Submitter interface {
	Submit(ctx context.Context, lead model.Lead) model.DeliveryResult
}

// Server holds the request-scoped collaborators.
type Server struct {
	screener  Screener
	submitter Submitter
	limiter   *RateLimiter
}

// New creates a Server.
func New(screener Screener, submitter Submitter, rl config.RateLimitConfig) *Server {
	return &Server{
		screener:  screener,
		submitter: submitter,
		limiter:   NewRateLimiter(rl),
	}
}

// Router builds the HTTP handler with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(s.recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/", s.handleLanding)
	r.Get("/LP-Hochzeitsanzug", s.handleLanding)
	r.Get("/danke", s.handleThankYou)
	r.Get("/LP-Hochzeitsanzug/danke", s.handleThankYou)
	r.Get("/health", s.handleHealth)

	r.With(s.rateLimit).Post("/api/contact", s.handleContact)

	// Unknown paths fall through to the landing page so deep links and
	// ad-campaign typos still convert.
	r.NotFound(s.handleLanding)

	return r
}

// clientIP extracts the client address, honoring the first entry of
// X-Forwarded-For when a proxy sits in front.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
