package pagecap

import (
	"context"
	"time"
)

// Run records one saved capture document.
type Run struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"sourceUrl"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	Pages     int       `json:"pages"`
	OCR       bool      `json:"ocr"`
	ByteSize  int64     `json:"byteSize"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.Path == "" {
		return Errorf(EINVALID, "run output path required")
	}
	if r.Pages < 1 {
		return Errorf(EINVALID, "run page count must be at least 1, got %d", r.Pages)
	}
	return nil
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	ID        *string `json:"id"`
	SourceURL *string `json:"sourceUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RunService manages the history of saved capture runs.
type RunService interface {
	// CreateRun records a new run.
	CreateRun(ctx context.Context, run *Run) error

	// FindRuns retrieves runs matching the filter, newest first, along
	// with the total count of matches before Offset and Limit apply.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, int, error)

	// DeleteRun permanently removes a run record.
	// Returns ENOTFOUND if the run does not exist.
	DeleteRun(ctx context.Context, id string) error
}
