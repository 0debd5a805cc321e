package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/internal/orchestrator"
	"github.com/rohmanhakim/fic-roulette/internal/search"
	"github.com/rohmanhakim/fic-roulette/pkg/limiter"
	"github.com/rs/cors"
)

// Generator produces one random pick for a filter.
type Generator interface {
	GetRandomItem(ctx context.Context, filter search.Filter) orchestrator.Result
}

// FandomSuggester proxies the catalog's fandom autocomplete.
type FandomSuggester interface {
	AutocompleteFandom(ctx context.Context, term string, timeout time.Duration) ([]fetcher.AutocompleteEntry, error)
}

type Param struct {
	AllowedOrigins []string
	// /generate calls one client may make per ClientWindow.
	ClientLimit         int
	ClientWindow        time.Duration
	AutocompleteTimeout time.Duration
	// Upper bound for one /generate call, including every fetch it makes.
	GenerateTimeout time.Duration
}

type Server struct {
	logger        *slog.Logger
	generator     Generator
	suggester     FandomSuggester
	clientLimiter *limiter.WindowLimiter
	param         Param
}

func New(
	logger *slog.Logger,
	generator Generator,
	suggester FandomSuggester,
	param Param,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if param.AutocompleteTimeout <= 0 {
		param.AutocompleteTimeout = 10 * time.Second
	}
	if len(param.AllowedOrigins) == 0 {
		param.AllowedOrigins = []string{"*"}
	}
	if param.ClientLimit < 1 {
		param.ClientLimit = 10
	}
	if param.ClientWindow <= 0 {
		param.ClientWindow = time.Minute
	}
	return &Server{
		logger:        logger,
		generator:     generator,
		suggester:     suggester,
		clientLimiter: limiter.NewWindowLimiter(param.ClientLimit, param.ClientWindow),
		param:         param,
	}
}

// Handler builds the routed, CORS-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/autocomplete/fandom", s.handleAutocompleteFandom)
	r.With(clientLimit(s.clientLimiter)).Post("/generate", s.handleGenerate)

	c := cors.New(cors.Options{
		AllowedOrigins: s.param.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After"},
	})
	return c.Handler(r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
