// Package download fetches the objects recorded for a lane and hour into a
// local directory tree and records the outcome of each fetch.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"s3transfer/internal/apperr"
	"s3transfer/internal/metrics"
	"s3transfer/internal/models"
)

type ObjectFetcher interface {
	FetchToPath(ctx context.Context, bucket, key, destinationPath string) (int64, error)
}

type RecordStore interface {
	FindByLaneAndHour(ctx context.Context, lane string, hour int, date time.Time) ([]models.FileRecord, error)
	UpdateStatus(ctx context.Context, filePath string, status models.Status, localPath string) error
}

type Orchestrator struct {
	fetcher ObjectFetcher
	records RecordStore
	bucket  string
	root    string
	metrics *metrics.Metrics
}

func New(fetcher ObjectFetcher, records RecordStore, bucket, root string, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		fetcher: fetcher,
		records: records,
		bucket:  bucket,
		root:    root,
		metrics: m,
	}
}

// LocalPath is <root>/<lane>/<YYYY>/<MM>/<DD>/<HH>/<basename of file path>.
// root is kept verbatim so "./downloads" stays "./downloads/...".
func LocalPath(root string, record models.FileRecord) string {
	rel := filepath.Join(
		record.LaneID,
		filepath.FromSlash(record.Timestamp.Format("2006/01/02/15")),
		path.Base(record.FilePath),
	)
	if root == "" {
		return rel
	}
	if strings.HasSuffix(root, string(filepath.Separator)) {
		return root + rel
	}
	return root + string(filepath.Separator) + rel
}

// Download fetches every record matching q. Records already downloaded are
// fetched again and overwritten in place. A query failure aborts the run;
// fetch and status update failures are reported per record.
func (o *Orchestrator) Download(ctx context.Context, q models.DownloadQuery) (*models.DownloadResult, error) {
	defer o.metrics.ObserveRun("download", time.Now())

	records, err := o.records.FindByLaneAndHour(ctx, q.LaneID, q.Hour, q.Date)
	if err != nil {
		return nil, err
	}

	result := models.NewDownloadResult(q.LaneID)
	for _, record := range records {
		o.downloadOne(ctx, record, result)
	}

	slog.Info("Download complete", "lane_id", q.LaneID, "hour", q.Hour,
		"successful", result.SuccessCount, "failed", result.FailureCount,
		"metadata_errors", len(result.MetadataErrors))
	return result, nil
}

func (o *Orchestrator) downloadOne(ctx context.Context, record models.FileRecord, result *models.DownloadResult) {
	localPath := LocalPath(o.root, record)

	n, err := o.fetch(ctx, record.FilePath, localPath)
	if err != nil {
		slog.Error("Error downloading file", "file_path", record.FilePath, "error", err)
		o.metrics.ObserveDownload(false, 0)
		result.AddFailure(record.FilePath)
		o.updateStatus(ctx, record.FilePath, models.StatusFailed, "", result)
		return
	}

	downloaded := record
	downloaded.Status = models.StatusDownloaded
	downloaded.LocalPath = localPath
	downloaded.Size = n

	slog.Info("Successfully downloaded file", "file_path", record.FilePath, "local_path", localPath)
	o.metrics.ObserveDownload(true, n)
	result.AddSuccess(downloaded)
	o.updateStatus(ctx, record.FilePath, models.StatusDownloaded, localPath, result)
}

func (o *Orchestrator) fetch(ctx context.Context, key, localPath string) (int64, error) {
	if isFolderMarker(key) {
		return 0, apperr.NewValidationError("file_path", "%q is a folder marker, not a file", key)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", localPath, err)
	}
	return o.fetcher.FetchToPath(ctx, o.bucket, key, localPath)
}

func isFolderMarker(key string) bool {
	return key == "" || strings.HasSuffix(key, "/")
}

func (o *Orchestrator) updateStatus(ctx context.Context, filePath string, status models.Status, localPath string, result *models.DownloadResult) {
	if err := o.records.UpdateStatus(ctx, filePath, status, localPath); err != nil {
		slog.Error("Error updating file status", "file_path", filePath, "status", status, "error", err)
		o.metrics.ObserveStatusUpdateError()
		result.AddMetadataError(filePath, status, err)
	}
}
