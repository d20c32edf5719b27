// Package api serves the transfer and download orchestrators over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"s3transfer/internal/metrics"
	"s3transfer/internal/models"
)

type Transferer interface {
	Transfer(ctx context.Context, sel models.Selection) (*models.TransferResult, error)
}

type Downloader interface {
	Download(ctx context.Context, q models.DownloadQuery) (*models.DownloadResult, error)
}

type Options struct {
	Addr     string
	Prefix   string
	Version  string
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
}

// Server wraps the gin router and the underlying http.Server.
type Server struct {
	transfers Transferer
	downloads Downloader
	version   string
	metrics   *metrics.Metrics
	router    *gin.Engine
	server    *http.Server
}

func NewServer(transfers Transferer, downloads Downloader, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware(), requestLogger(opts.Metrics))

	s := &Server{
		transfers: transfers,
		downloads: downloads,
		version:   opts.Version,
		metrics:   opts.Metrics,
		router:    router,
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.registerRoutes(opts.Prefix, opts.Gatherer)
	return s
}

func (s *Server) registerRoutes(prefix string, gatherer prometheus.Gatherer) {
	v1 := s.router.Group(prefix)
	v1.GET("/health", s.handleHealth)
	v1.POST("/transfer", s.handleTransfer)
	v1.POST("/download", s.handleDownload)

	if gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	slog.Info("HTTP server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
