package models

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusDownloaded Status = "downloaded"
	StatusFailed     Status = "failed"
)

// FileRecord tracks one remote object and its local download state.
// FilePath is the object key and the record identity.
type FileRecord struct {
	FilePath  string    `json:"file_path" bson:"file_path"`
	LaneID    string    `json:"lane_id" bson:"lane_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	LocalPath string    `json:"local_path" bson:"local_path"`
	Size      int64     `json:"size" bson:"size"`
	Status    Status    `json:"status" bson:"status"`
}

// RegisterResult reports which listed objects were stored as pending records.
type RegisterResult struct {
	LaneID       string   `json:"lane_id"`
	Bucket       string   `json:"bucket"`
	Registered   []string `json:"registered"`
	Failed       []string `json:"failed"`
	Total        int      `json:"total"`
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
}

func NewRegisterResult(laneID, bucket string) *RegisterResult {
	return &RegisterResult{
		LaneID:     laneID,
		Bucket:     bucket,
		Registered: []string{},
		Failed:     []string{},
	}
}

func (r *RegisterResult) AddSuccess(filePath string) {
	r.Registered = append(r.Registered, filePath)
	r.SuccessCount++
	r.Total++
}

func (r *RegisterResult) AddFailure(filePath string) {
	r.Failed = append(r.Failed, filePath)
	r.FailureCount++
	r.Total++
}

// PendingRecord builds the initial record for a freshly listed object.
func PendingRecord(laneID string, object ObjectInfo) FileRecord {
	return FileRecord{
		FilePath:  object.Key,
		LaneID:    laneID,
		Timestamp: object.LastModified,
		Size:      object.Size,
		Status:    StatusPending,
	}
}
