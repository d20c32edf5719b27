// Package transfer copies objects from a source bucket to a destination
// bucket one key at a time.
package transfer

import (
	"context"
	"log/slog"
	"time"

	"s3transfer/internal/apperr"
	"s3transfer/internal/metrics"
	"s3transfer/internal/models"
	"s3transfer/pkg/utils"
)

type ObjectStore interface {
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
	ObjectSize(ctx context.Context, bucket, key string) (int64, error)
	Copy(ctx context.Context, sourceBucket, key, destinationBucket string) error
}

type Orchestrator struct {
	store       ObjectStore
	source      string
	destination string
	metrics     *metrics.Metrics
}

func New(store ObjectStore, source, destination string, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		store:       store,
		source:      source,
		destination: destination,
		metrics:     m,
	}
}

// Transfer resolves sel to a key list and copies each key. A failed key is
// recorded and does not stop the rest; a failed listing aborts the run.
// Missing bucket names are rejected before anything is listed.
func (o *Orchestrator) Transfer(ctx context.Context, sel models.Selection) (*models.TransferResult, error) {
	defer o.metrics.ObserveRun("transfer", time.Now())

	if o.source == "" {
		return nil, apperr.NewValidationError("source_bucket", "is not configured")
	}
	if o.destination == "" {
		return nil, apperr.NewValidationError("destination_bucket", "is not configured")
	}

	keys, err := o.resolve(ctx, sel)
	if err != nil {
		return nil, err
	}
	slog.Info("Found files to transfer", "count", len(keys), "selection", sel.String(),
		"source", o.source, "destination", o.destination)

	result := models.NewTransferResult(o.source, o.destination)
	for _, key := range keys {
		if err := o.transferOne(ctx, key); err != nil {
			slog.Error("Error transferring object", "key", key, "error", err)
			result.AddFailure(key)
			o.metrics.ObserveTransfer(false)
			continue
		}
		result.AddSuccess(key)
		o.metrics.ObserveTransfer(true)
	}

	slog.Info("Transfer complete", "successful", result.SuccessCount, "failed", result.FailureCount)
	return result, nil
}

func (o *Orchestrator) resolve(ctx context.Context, sel models.Selection) ([]string, error) {
	switch sel.Mode {
	case models.SelectKeys:
		return sel.Keys, nil
	case models.SelectPrefix:
		return o.store.ListKeys(ctx, o.source, sel.Prefix)
	default:
		return o.store.ListKeys(ctx, o.source, "")
	}
}

func (o *Orchestrator) transferOne(ctx context.Context, key string) error {
	size, err := o.store.ObjectSize(ctx, o.source, key)
	if err != nil {
		return err
	}
	if err := o.store.Copy(ctx, o.source, key, o.destination); err != nil {
		return err
	}
	slog.Info("Successfully transferred object", "key", key, "size", utils.FormatSize(size))
	return nil
}
