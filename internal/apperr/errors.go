// Package apperr defines the error taxonomy shared by the object store,
// metadata store and HTTP layers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindStorage    Kind = "storage_access"
	KindMetadata   Kind = "metadata_store"
	KindValidation Kind = "validation"
	KindInternal   Kind = "internal"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrBucketNotFound = errors.New("bucket not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrRecordNotFound = errors.New("record not found")
)

// StorageAccessError reports a failed object store call.
type StorageAccessError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageAccessError) Error() string {
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("s3.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	default:
		return fmt.Sprintf("s3.%s: %v", e.Op, e.Err)
	}
}

func (e *StorageAccessError) Unwrap() error {
	return e.Err
}

func NewStorageError(op, bucket, key string, err error) *StorageAccessError {
	return &StorageAccessError{Op: op, Bucket: bucket, Key: key, Err: err}
}

// MetadataStoreError reports a failed document store call.
type MetadataStoreError struct {
	Op       string
	FilePath string
	Err      error
}

func (e *MetadataStoreError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("metadata.%s %s: %v", e.Op, e.FilePath, e.Err)
	}
	return fmt.Sprintf("metadata.%s: %v", e.Op, e.Err)
}

func (e *MetadataStoreError) Unwrap() error {
	return e.Err
}

func NewMetadataError(op, filePath string, err error) *MetadataStoreError {
	return &MetadataStoreError{Op: op, FilePath: filePath, Err: err}
}

// ValidationError reports malformed input rejected at a boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies err by the outermost taxonomy type found in its chain.
func KindOf(err error) Kind {
	var (
		validationErr *ValidationError
		storageErr    *StorageAccessError
		metadataErr   *MetadataStoreError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &storageErr):
		return KindStorage
	case errors.As(err, &metadataErr):
		return KindMetadata
	default:
		return KindInternal
	}
}
