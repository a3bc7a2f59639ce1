package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/eslsoft/taboo/internal/adapter/connectrpc"
	"github.com/eslsoft/taboo/internal/infrastructure/config"
)

// Server represents the application server
type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
}

// NewServer mounts the connect service behind CORS and h2c.
func NewServer(cfg *config.Config, logger *logrus.Logger, taboo *connectrpc.TabooServiceServer) *Server {
	mux := http.NewServeMux()
	path, handler := taboo.Handler(connect.WithInterceptors(Logger(logger)))
	mux.Handle(path, handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:           h2c.NewHandler(withCORS(cfg.Server.CORSOrigins, mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}
}

func withCORS(origins []string, h http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: connectcors.AllowedHeaders(),
		ExposedHeaders: connectcors.ExposedHeaders(),
		MaxAge:         7200,
	}).Handler(h)
}

// Handler returns the root handler with CORS and h2c applied.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.logger.Infof("HTTP server starting on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
