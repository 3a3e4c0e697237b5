package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/pagecap"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ pagecap.RunService = (*RunService)(nil)

// RunService implements pagecap.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun records a saved capture. The ID is always generated. A zero
// CreatedAt is stamped with the current time; callers usually carry the
// timestamp of the assembled document instead.
func (s *RunService) CreateRun(ctx context.Context, run *pagecap.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source_url, title, path, pages, ocr, byte_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SourceURL, run.Title, run.Path, run.Pages, run.OCR, run.ByteSize,
		formatTime(run.CreatedAt))

	return err
}

// FindRuns retrieves runs matching the filter, newest first, along with the
// total number of matches before pagination.
func (s *RunService) FindRuns(ctx context.Context, filter pagecap.RunFilter) ([]*pagecap.Run, int, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, source_url, title, path, pages, ocr, byte_size, created_at, COUNT(*) OVER() FROM runs WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	query.WriteString(" ORDER BY created_at DESC")

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	total := 0
	var runs []*pagecap.Run
	for rows.Next() {
		var run pagecap.Run
		var createdAt string

		if err := rows.Scan(&run.ID, &run.SourceURL, &run.Title, &run.Path, &run.Pages,
			&run.OCR, &run.ByteSize, &createdAt, &total); err != nil {
			return nil, 0, err
		}

		var parseErr error
		run.CreatedAt, parseErr = parseTime(createdAt, "created_at")
		if parseErr != nil {
			return nil, 0, parseErr
		}

		runs = append(runs, &run)
	}

	return runs, total, rows.Err()
}

// DeleteRun permanently removes a run record.
func (s *RunService) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return pagecap.Errorf(pagecap.ENOTFOUND, "run not found")
	}

	return nil
}
