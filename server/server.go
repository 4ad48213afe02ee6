package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alan-mat/webanswer/internal/api"
	"github.com/alan-mat/webanswer/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Answerer runs the answer pipeline for a single query.
type Answerer interface {
	Run(ctx context.Context, q api.Query) (*api.Answer, error)
}

type Server struct {
	config   config.ServerConfig
	answerer Answerer
}

func New(conf config.ServerConfig, answerer Answerer) *Server {
	return &Server{
		config:   conf,
		answerer: answerer,
	}
}

// Router builds the gin engine serving the public endpoints.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.POST("/api/request", s.handleRequest)
	r.GET("/healthz", handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	lisAddr := fmt.Sprintf("%s:%d", s.config.ListenHost, s.config.ListenPort)
	srv := &http.Server{
		Addr:              lisAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "listener", lisAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("failed to serve", "err", err)
		return err
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
