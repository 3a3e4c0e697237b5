package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagecap"
)

// Ensure LoggingAssembler implements pagecap.Assembler.
var _ pagecap.Assembler = (*LoggingAssembler)(nil)

// LoggingAssembler wraps an Assembler with logging.
type LoggingAssembler struct {
	next   pagecap.Assembler
	logger *slog.Logger
}

// NewLoggingAssembler creates a new LoggingAssembler.
func NewLoggingAssembler(next pagecap.Assembler, logger *slog.Logger) *LoggingAssembler {
	return &LoggingAssembler{next: next, logger: logger}
}

// Assemble logs the assembly outcome and delegates to the wrapped
// assembler.
func (a *LoggingAssembler) Assemble(ctx context.Context, frames []pagecap.Frame, ocr []pagecap.OCRResult, opts pagecap.AssembleOptions) (artifact *pagecap.Artifact, err error) {
	defer func(begin time.Time) {
		var pages int
		var path string
		if artifact != nil {
			pages = artifact.Pages
			path = artifact.Path
		}
		a.logger.Info("assemble",
			"frames", len(frames),
			"pages", pages,
			"path", path,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Assemble(ctx, frames, ocr, opts)
}
