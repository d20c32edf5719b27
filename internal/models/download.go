package models

import (
	"strings"
	"time"

	"s3transfer/internal/apperr"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

type DownloadRequest struct {
	LaneID string `json:"lane_id"`
	Hour   *int   `json:"hour"`
	Date   string `json:"date"`
}

// DownloadQuery is a validated DownloadRequest.
type DownloadQuery struct {
	LaneID string
	Hour   int
	Date   time.Time
}

func (r DownloadRequest) Validate() (DownloadQuery, error) {
	if strings.TrimSpace(r.LaneID) == "" {
		return DownloadQuery{}, apperr.NewValidationError("lane_id", "is required")
	}
	if r.Hour == nil {
		return DownloadQuery{}, apperr.NewValidationError("hour", "is required")
	}
	if *r.Hour < 0 || *r.Hour > 23 {
		return DownloadQuery{}, apperr.NewValidationError("hour", "must be between 0 and 23, got %d", *r.Hour)
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return DownloadQuery{}, err
	}
	return DownloadQuery{LaneID: r.LaneID, Hour: *r.Hour, Date: date}, nil
}

// ParseDate accepts RFC 3339, a zone-less ISO-8601 datetime (read as UTC,
// seconds optional, "T" or space separated) or a bare date.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperr.NewValidationError("date", "is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.NewValidationError("date", "%q is not an ISO-8601 date", value)
}

// MetadataError records a status update that failed after the fetch
// outcome was already decided.
type MetadataError struct {
	FilePath string `json:"file_path"`
	Status   Status `json:"status"`
	Error    string `json:"error"`
}

type DownloadResult struct {
	LaneID         string          `json:"lane_id,omitempty"`
	Successful     []FileRecord    `json:"successful"`
	Failed         []string        `json:"failed"`
	Total          int             `json:"total"`
	SuccessCount   int             `json:"success_count"`
	FailureCount   int             `json:"failure_count"`
	MetadataErrors []MetadataError `json:"metadata_errors,omitempty"`
}

func NewDownloadResult(laneID string) *DownloadResult {
	return &DownloadResult{
		LaneID:     laneID,
		Successful: []FileRecord{},
		Failed:     []string{},
	}
}

func (r *DownloadResult) AddSuccess(record FileRecord) {
	r.Successful = append(r.Successful, record)
	r.SuccessCount++
	r.Total++
}

func (r *DownloadResult) AddFailure(filePath string) {
	r.Failed = append(r.Failed, filePath)
	r.FailureCount++
	r.Total++
}

func (r *DownloadResult) AddMetadataError(filePath string, status Status, err error) {
	r.MetadataErrors = append(r.MetadataErrors, MetadataError{
		FilePath: filePath,
		Status:   status,
		Error:    err.Error(),
	})
}
