package internal

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"powder-inventory/internal/auth"
	"powder-inventory/internal/config"
	"powder-inventory/internal/handlers"
	"powder-inventory/internal/registry"
	"powder-inventory/internal/store"

	"github.com/go-chi/chi/v5"
)

type Server struct {
	Router   *chi.Mux
	Registry *registry.Service
	Gate     *auth.Gate
	Sessions *auth.SessionManager
	Metrics  *Metrics
	Logger   *slog.Logger

	closer io.Closer
}

// NewServer opens the configured store and wires the HTTP surface. A store
// that cannot be opened does not stop the process: every asset request then
// answers 503 until the configuration is fixed.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		logger.Error("asset store unavailable", "backend", cfg.StoreBackend, "error", err)
		st = store.NewBroken(err)
	}

	provider := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL+"/auth")

	s, err := newServer(cfg, st, provider, logger)
	if err != nil {
		if c, ok := st.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}
	return s, nil
}

// newServer builds the router around an already opened store
func newServer(cfg *config.Config, st store.Store, provider auth.Provider, logger *slog.Logger) (*Server, error) {
	sessions := auth.NewSessionManager(cfg.SessionSecret, "powder-inventory", cfg.SessionExpiry)
	if err := sessions.ValidateConfig(); err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	gate := auth.NewGate(cfg.AllowedDomain)

	s := &Server{
		Router:   chi.NewRouter(),
		Gate:     gate,
		Sessions: sessions,
		Metrics:  metrics,
		Logger:   logger,
	}
	if c, ok := st.(io.Closer); ok {
		s.closer = c
	}

	instrumented := store.NewInstrumented(st, metrics.Registerer())
	s.Registry = registry.New(instrumented, gate,
		registry.WithLogger(logger),
		registry.WithMetrics(registry.NewMetrics(metrics.Registerer())),
	)

	authHandlers := &auth.Handlers{
		Provider: provider,
		Sessions: sessions,
		Gate:     gate,
		Logger:   logger,
	}

	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	s.Router.Get("/login", authHandlers.Login)
	s.Router.Get("/auth", authHandlers.Callback)
	s.Router.Get("/logout", authHandlers.Logout)

	writes := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if cfg.RateLimitRPS > 0 {
		limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		writes = func(h http.HandlerFunc) http.HandlerFunc {
			return limiter.Middleware(h).ServeHTTP
		}
	}

	s.Router.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(s.Sessions))
		r.Use(RequestLogger(logger))

		r.Get("/", s.getMe)
		r.Get("/me", s.getMe)
		r.Get("/assets", s.listAssets)
		r.Get("/assets/*", s.getAsset)
		r.Post("/assets", writes(s.createAsset))
		r.Put("/assets/*", writes(s.updateAsset))
		r.Post("/assets/*", writes(s.updateAsset))

		imports := handlers.NewImportsHandler(s.Registry, gate, cfg.ImportMappingPath, logger)
		r.Post("/imports/excel", writes(imports.UploadExcel))
	})

	return s, nil
}

// Close releases the store's connections, if it holds any
func (s *Server) Close(ctx context.Context) error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
