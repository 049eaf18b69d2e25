// Package httpserver exposes the OAuth2 endpoints over HTTP.
package httpserver

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/and161185/gophauth/internal/metrics"
	"github.com/and161185/gophauth/internal/model"
	"github.com/and161185/gophauth/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var loginTmpl = template.Must(template.ParseFS(templateFS, "templates/login.html"))

// Flow is the authorization flow the handlers drive.
type Flow interface {
	AuthorizeForm(ctx context.Context, r service.AuthorizeRequest) (service.LoginForm, error)
	Authorize(ctx context.Context, r service.AuthorizeRequest, c service.Credentials) (string, error)
	Exchange(ctx context.Context, r service.TokenRequest) (service.TokenResponse, error)
	ValidateToken(ctx context.Context, raw string) (model.Token, model.Grant, error)
	Revoke(ctx context.Context, t model.Token) error
}

// Options configure optional parts of the router.
type Options struct {
	// Metrics, when set, is fed by the logging middleware and served on /metrics.
	Metrics *metrics.Metrics
	// Health reports readiness of backing stores on /healthz.
	Health func(ctx context.Context) error
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// Server wires the flow into HTTP handlers.
type Server struct {
	flow    Flow
	log     *zap.Logger
	metrics *metrics.Metrics
	health  func(ctx context.Context) error
	router  chi.Router
}

// New builds the router.
func New(flow Flow, log *zap.Logger, opts Options) *Server {
	s := &Server{flow: flow, log: log, metrics: opts.Metrics, health: opts.Health}

	r := chi.NewRouter()
	r.Use(RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.Logging)
	r.Use(s.Recover)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusNotFound, message{"404: Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusMethodNotAllowed, message{"405: Method Not Allowed"})
	})

	r.Get("/authorize", s.handlerFunc(s.authorizeForm))
	r.Post("/authorize", s.handlerFunc(s.authorize))
	r.Post("/token", s.handlerFunc(s.token))
	r.With(s.RequireBearer).Post("/token/revoke", s.handlerFunc(s.revoke))

	r.Get("/healthz", s.handlerFunc(s.healthz))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
