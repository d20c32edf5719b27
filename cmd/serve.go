package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"s3transfer/internal/api"
	"s3transfer/internal/download"
	"s3transfer/internal/s3client"
	"s3transfer/internal/transfer"
	"s3transfer/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API exposing health, transfer and download endpoints.

Endpoints are mounted under API_PREFIX (default /api/v1); Prometheus metrics
are served at /metrics. The server stops gracefully on SIGINT or SIGTERM.`,
	Example: `  # Serve on the configured address
  s3transfer serve

  # Serve on a different port
  s3transfer serve --addr :9000`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) {
	c := effectiveConfig(cmd)
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		c.HTTPAddr = addr
	}
	if err := c.ValidateServe(); err != nil {
		utils.PrintError(err, "serve")
		return
	}
	if c.DestinationBucket == "" {
		slog.Warn("DESTINATION_BUCKET is not set; transfer requests will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	objects, err := s3client.New(startCtx, c)
	if err != nil {
		utils.PrintError(err, "serve")
		return
	}
	records, err := connectMetadata(startCtx, c)
	if err != nil {
		utils.PrintError(err, "serve")
		return
	}
	defer closeMetadata(records)

	reg, m := newMetrics()
	server := api.NewServer(
		transfer.New(objects, c.SourceBucket, c.DestinationBucket, m),
		download.New(objects, records, c.SourceBucket, c.DownloadPath, m),
		api.Options{
			Addr:     c.HTTPAddr,
			Prefix:   c.APIPrefix,
			Version:  c.Version,
			Gatherer: reg,
			Metrics:  m,
		},
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			utils.PrintError(err, "serve")
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
}
