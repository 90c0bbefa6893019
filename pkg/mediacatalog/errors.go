package mediacatalog

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrNotFound matches every lookup failure below via errors.Is
	ErrNotFound = errors.New("not found")

	// ErrEntryNotFound indicates no entry carries the requested id
	ErrEntryNotFound = fmt.Errorf("media entry %w", ErrNotFound)

	// ErrReviewNotFound indicates the entry has no review with the requested id
	ErrReviewNotFound = fmt.Errorf("review %w", ErrNotFound)

	// ErrIDExhausted indicates the id generator kept returning ids already in use
	ErrIDExhausted = errors.New("could not generate a unique id")
)

// FieldError describes one invalid or missing request attribute.
type FieldError struct {
	Param    string `json:"param"`
	Msg      string `json:"msg"`
	Location string `json:"location"`
}

// ValidationError reports every attribute that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// StorageError represents a failure reading or writing the persisted collection
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed on backend %s: %v", e.Op, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// UploadError represents a blob store failure while storing a poster
type UploadError struct {
	EntryID string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("poster upload failed for entry %s: %v", e.EntryID, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
