package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"s3transfer/internal/apperr"
	"s3transfer/internal/models"
)

type statusUpdate struct {
	filePath  string
	status    models.Status
	localPath string
}

type fakeRecords struct {
	records   []models.FileRecord
	findErr   error
	updateErr map[string]error
	updates   []statusUpdate

	gotLane string
	gotHour int
	gotDate time.Time
}

func (f *fakeRecords) FindByLaneAndHour(_ context.Context, lane string, hour int, date time.Time) ([]models.FileRecord, error) {
	f.gotLane, f.gotHour, f.gotDate = lane, hour, date
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.records, nil
}

func (f *fakeRecords) UpdateStatus(_ context.Context, filePath string, status models.Status, localPath string) error {
	f.updates = append(f.updates, statusUpdate{filePath: filePath, status: status, localPath: localPath})
	return f.updateErr[filePath]
}

type fakeFetcher struct {
	content map[string]string
	fail    map[string]error
	fetched []string
}

func (f *fakeFetcher) FetchToPath(_ context.Context, _, key, destinationPath string) (int64, error) {
	f.fetched = append(f.fetched, key)
	if err := f.fail[key]; err != nil {
		return 0, err
	}
	body := f.content[key]
	if err := os.WriteFile(destinationPath, []byte(body), 0644); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

func record(filePath string, ts time.Time) models.FileRecord {
	return models.FileRecord{
		FilePath:  filePath,
		LaneID:    "L1",
		Timestamp: ts,
		Status:    models.StatusPending,
	}
}

func assertCounts(t *testing.T, result *models.DownloadResult) {
	t.Helper()
	assert.Equal(t, result.Total, result.SuccessCount+result.FailureCount)
	assert.Equal(t, result.Total, len(result.Successful)+len(result.Failed))
	assert.Len(t, result.Successful, result.SuccessCount)
	assert.Len(t, result.Failed, result.FailureCount)
}

func TestLocalPath(t *testing.T) {
	rec := models.FileRecord{
		FilePath:  "a/b/object.csv",
		LaneID:    "L1",
		Timestamp: time.Date(2024, 3, 5, 14, 22, 0, 0, time.UTC),
	}

	tests := []struct {
		root     string
		expected string
	}{
		{"./downloads", "./downloads/L1/2024/03/05/14/object.csv"},
		{"./downloads/", "./downloads/L1/2024/03/05/14/object.csv"},
		{"/var/data", "/var/data/L1/2024/03/05/14/object.csv"},
		{"", "L1/2024/03/05/14/object.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.root, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.expected), LocalPath(tt.root, rec))
		})
	}
}

func TestLocalPathFlatKey(t *testing.T) {
	rec := models.FileRecord{
		FilePath:  "object.csv",
		LaneID:    "L9",
		Timestamp: time.Date(2023, 12, 31, 0, 5, 0, 0, time.UTC),
	}
	assert.Equal(t, filepath.FromSlash("root/L9/2023/12/31/00/object.csv"), LocalPath("root", rec))
}

func TestDownload(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2024, 3, 5, 14, 22, 0, 0, time.UTC)
	records := &fakeRecords{records: []models.FileRecord{
		record("a/b/object.csv", ts),
		record("a/b/other.csv", ts.Add(30*time.Minute)),
	}}
	fetcher := &fakeFetcher{content: map[string]string{
		"a/b/object.csv": "hello",
		"a/b/other.csv":  "world!",
	}}

	o := New(fetcher, records, "source", root, nil)
	query := models.DownloadQuery{LaneID: "L1", Hour: 14, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}
	result, err := o.Download(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, "L1", records.gotLane)
	assert.Equal(t, 14, records.gotHour)
	assert.Equal(t, query.Date, records.gotDate)

	require.Len(t, result.Successful, 2)
	assert.Empty(t, result.Failed)
	assert.Empty(t, result.MetadataErrors)
	assertCounts(t, result)

	first := result.Successful[0]
	expectedPath := filepath.Join(root, "L1", "2024", "03", "05", "14", "object.csv")
	assert.Equal(t, expectedPath, first.LocalPath)
	assert.Equal(t, models.StatusDownloaded, first.Status)
	assert.Equal(t, int64(5), first.Size)

	content, err := os.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	assert.Equal(t, []statusUpdate{
		{filePath: "a/b/object.csv", status: models.StatusDownloaded, localPath: expectedPath},
		{filePath: "a/b/other.csv", status: models.StatusDownloaded, localPath: filepath.Join(root, "L1", "2024", "03", "05", "14", "other.csv")},
	}, records.updates)
}

func TestDownloadDoesNotMutateStoredRecords(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 22, 0, 0, time.UTC)
	records := &fakeRecords{records: []models.FileRecord{record("a/object.csv", ts)}}
	fetcher := &fakeFetcher{content: map[string]string{"a/object.csv": "x"}}

	o := New(fetcher, records, "source", t.TempDir(), nil)
	result, err := o.Download(context.Background(), models.DownloadQuery{LaneID: "L1", Hour: 14, Date: ts})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, records.records[0].Status)
	assert.Empty(t, records.records[0].LocalPath)
	assert.Equal(t, models.StatusDownloaded, result.Successful[0].Status)
}

func TestDownloadPartialFailure(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	records := &fakeRecords{records: []models.FileRecord{
		record("one.csv", ts),
		record("two.csv", ts),
		record("three.csv", ts),
	}}
	fetcher := &fakeFetcher{
		content: map[string]string{"one.csv": "1", "three.csv": "3"},
		fail: map[string]error{
			"two.csv": apperr.NewStorageError("head", "source", "two.csv", apperr.ErrObjectNotFound),
		},
	}

	o := New(fetcher, records, "source", t.TempDir(), nil)
	result, err := o.Download(context.Background(), models.DownloadQuery{LaneID: "L1", Hour: 14, Date: ts})
	require.NoError(t, err)

	assert.Equal(t, []string{"one.csv", "two.csv", "three.csv"}, fetcher.fetched)
	assert.Equal(t, []string{"two.csv"}, result.Failed)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, 3, result.Total)
	assertCounts(t, result)

	assert.Contains(t, records.updates, statusUpdate{filePath: "two.csv", status: models.StatusFailed})
}

func TestDownloadStatusUpdateFailureIsReportedSeparately(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	records := &fakeRecords{
		records: []models.FileRecord{record("ok.csv", ts), record("broken.csv", ts), record("gone.csv", ts)},
		updateErr: map[string]error{
			"ok.csv":   apperr.NewMetadataError("update", "ok.csv", apperr.ErrRecordNotFound),
			"gone.csv": apperr.NewMetadataError("update", "gone.csv", errors.New("connection lost")),
		},
	}
	fetcher := &fakeFetcher{
		content: map[string]string{"ok.csv": "ok", "broken.csv": "b"},
		fail:    map[string]error{"gone.csv": errors.New("timeout")},
	}

	o := New(fetcher, records, "source", t.TempDir(), nil)
	result, err := o.Download(context.Background(), models.DownloadQuery{LaneID: "L1", Hour: 14, Date: ts})
	require.NoError(t, err)

	// The fetch outcome decides success or failure.
	require.Len(t, result.Successful, 2)
	assert.Equal(t, "ok.csv", result.Successful[0].FilePath)
	assert.Equal(t, []string{"gone.csv"}, result.Failed)
	assertCounts(t, result)

	require.Len(t, result.MetadataErrors, 2)
	assert.Equal(t, "ok.csv", result.MetadataErrors[0].FilePath)
	assert.Equal(t, models.StatusDownloaded, result.MetadataErrors[0].Status)
	assert.Contains(t, result.MetadataErrors[0].Error, "record not found")
	assert.Equal(t, "gone.csv", result.MetadataErrors[1].FilePath)
	assert.Equal(t, models.StatusFailed, result.MetadataErrors[1].Status)
}

func TestDownloadQueryFailureAborts(t *testing.T) {
	records := &fakeRecords{findErr: apperr.NewMetadataError("find", "", errors.New("server selection timeout"))}
	fetcher := &fakeFetcher{}

	o := New(fetcher, records, "source", t.TempDir(), nil)
	result, err := o.Download(context.Background(), models.DownloadQuery{LaneID: "L1", Hour: 1, Date: time.Now()})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, apperr.KindMetadata, apperr.KindOf(err))
	assert.Empty(t, fetcher.fetched)
}

func TestDownloadNoRecords(t *testing.T) {
	o := New(&fakeFetcher{}, &fakeRecords{}, "source", t.TempDir(), nil)
	result, err := o.Download(context.Background(), models.DownloadQuery{LaneID: "L1", Hour: 1, Date: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Successful)
	assert.NotNil(t, result.Failed)
}

func TestDownloadRerunOverwrites(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2024, 3, 5, 14, 22, 0, 0, time.UTC)
	records := &fakeRecords{records: []models.FileRecord{record("a/b/object.csv", ts)}}
	fetcher := &fakeFetcher{content: map[string]string{"a/b/object.csv": "first version"}}
	o := New(fetcher, records, "source", root, nil)
	query := models.DownloadQuery{LaneID: "L1", Hour: 14, Date: ts}

	first, err := o.Download(context.Background(), query)
	require.NoError(t, err)

	// The stored record now reads as downloaded; a rerun fetches it again.
	records.records[0].Status = models.StatusDownloaded
	records.records[0].LocalPath = first.Successful[0].LocalPath
	fetcher.content["a/b/object.csv"] = "v2"

	second, err := o.Download(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, []string{"a/b/object.csv", "a/b/object.csv"}, fetcher.fetched)
	assert.Equal(t, first.Successful[0].LocalPath, second.Successful[0].LocalPath)

	content, err := os.ReadFile(second.Successful[0].LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(content))
}

func TestDownloadCreatesDirectoryBeforeFetch(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2024, 3, 5, 14, 22, 0, 0, time.UTC)
	records := &fakeRecords{records: []models.FileRecord{record("a/b/object.csv", ts)}}
	fetcher := &fakeFetcher{fail: map[string]error{"a/b/object.csv": errors.New("boom")}}

	o := New(fetcher, records, "source", root, nil)
	_, err := o.Download(context.Background(), models.DownloadQuery{LaneID: "L1", Hour: 14, Date: ts})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "L1", "2024", "03", "05", "14"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDownloadFolderMarkerFails(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2024, 3, 5, 14, 22, 0, 0, time.UTC)
	records := &fakeRecords{records: []models.FileRecord{
		record("lanes/L1/", ts),
		record("lanes/L1/object.csv", ts),
	}}
	fetcher := &fakeFetcher{content: map[string]string{"lanes/L1/object.csv": "data"}}

	o := New(fetcher, records, "source", root, nil)
	result, err := o.Download(context.Background(), models.DownloadQuery{LaneID: "L1", Hour: 14, Date: ts})
	require.NoError(t, err)

	assert.Equal(t, []string{"lanes/L1/object.csv"}, fetcher.fetched)
	assert.Equal(t, []string{"lanes/L1/"}, result.Failed)
	require.Len(t, result.Successful, 1)
	assertCounts(t, result)
	assert.Contains(t, records.updates, statusUpdate{filePath: "lanes/L1/", status: models.StatusFailed})

	_, statErr := os.Stat(filepath.Join(root, "L1", "2024", "03", "05", "14", "L1"))
	assert.True(t, os.IsNotExist(statErr))
}
