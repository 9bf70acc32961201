// Package server exposes scans over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tranvictor/approvalscan/scan"
)

const (
	HeaderRequestID  = "X-Request-ID"
	HeaderScanStatus = "X-Scan-Status"

	DEFAULT_CHAIN_ID = 1
	SHUTDOWN_TIMEOUT = 10 * time.Second
)

// Scanner runs one scan. *scan.Service implements it.
type Scanner interface {
	Scan(ctx context.Context, wallet string, chainID uint64) (*scan.Result, error)
}

type Server struct {
	scanner Scanner
	origins []string
	logger  *zap.Logger
	router  *chi.Mux
}

func New(scanner Scanner, corsOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		scanner: scanner,
		origins: corsOrigins,
		logger:  logger,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(s.origins))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Get("/scan/{address}", s.handleScanByPath)
		r.Post("/validate", s.handleValidate)
		r.Post("/validate-chain", s.handleValidateChain)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests for up to SHUTDOWN_TIMEOUT.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
