package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"s3transfer/config"
	"s3transfer/internal/metadata"
	"s3transfer/internal/metrics"
)

const metricsNamespace = "s3transfer"

func connectMetadata(ctx context.Context, c *config.Config) (*metadata.Store, error) {
	store, err := metadata.Connect(ctx, c.MongoURL, c.MongoDBName, c.MongoCollection)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		closeMetadata(store)
		return nil, err
	}
	return store, nil
}

func closeMetadata(store *metadata.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		slog.Warn("Failed to close MongoDB connection", "error", err)
	}
}

// newMetrics builds a registry carrying the process and Go runtime collectors
// alongside the service instruments.
func newMetrics() (*prometheus.Registry, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.New(reg, metricsNamespace)
}
