package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/stepform/internal/logging"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/registry"
	"github.com/aretw0/stepform/pkg/runner"
	"github.com/aretw0/stepform/pkg/session"
)

// Server exposes form sessions over a JSON API. Every event goes through
// session.Manager, so concurrent requests for one session are serialised
// and each outcome is persisted before it is answered.
type Server struct {
	Registry *registry.Registry
	Sessions *session.Manager
	Streams  *StreamManager

	service  *runner.Service
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	gatherer prometheus.Gatherer
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request failures and stream events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithLifecycleHooks attaches hooks to every form the server opens.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(s *Server) {
		s.hooks = h
	}
}

// WithMetrics serves g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a server over the given registry and session manager.
func NewServer(reg *registry.Registry, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Registry: reg,
		Sessions: sessions,
		logger:   logging.NewNop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	s.service = &runner.Service{
		Registry: reg,
		Sessions: sessions,
		Options:  []form.Option{form.WithLifecycleHooks(s.hooks), form.WithLogger(s.logger)},
	}
	return s
}

// NewHandler creates the HTTP handler for a new server.
func NewHandler(reg *registry.Registry, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(reg, sessions, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/info", s.info)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", s.listForms)
		r.Get("/{form}", s.describeForm)
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/events", s.postEvent)
			r.Get("/stream", s.stream)
			r.Get("/ws", s.serveWS)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	names, err := s.Registry.Names(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": s.version, "forms": names})
}

func (s *Server) listForms(w http.ResponseWriter, r *http.Request) {
	names, err := s.Registry.Names(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

type stepInfo struct {
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	Controls []string `json:"controls"`
}

func (s *Server) describeForm(w http.ResponseWriter, r *http.Request) {
	bp, err := s.Registry.Blueprint(r.Context(), chi.URLParam(r, "form"))
	if err != nil {
		s.fail(w, err)
		return
	}
	steps := make([]stepInfo, 0, len(bp.Steps()))
	for _, st := range bp.Steps() {
		info := stepInfo{ID: st.ID, Title: st.Title}
		for _, id := range st.Members() {
			c, _ := bp.Control(id)
			info.Controls = append(info.Controls, c.Path)
		}
		steps = append(steps, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": bp.Name(), "steps": steps})
}

// fail maps err to a status code and writes it as {"error": "..."}.
func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	var syntax *json.SyntaxError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrDefinitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownEvent), errors.Is(err, domain.ErrUnknownControl),
		errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8),
		errors.As(err, &syntax), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, runner.ErrFormMismatch):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
