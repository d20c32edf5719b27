package models

import "time"

type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Timestamp string `json:"timestamp"`
	Command   string `json:"command,omitempty"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ObjectInfo is the listing view of a single object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}
