package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagecap"
)

// Ensure LoggingRecognizer implements pagecap.Recognizer.
var _ pagecap.Recognizer = (*LoggingRecognizer)(nil)

// LoggingRecognizer wraps a Recognizer with per-frame logging.
type LoggingRecognizer struct {
	next   pagecap.Recognizer
	logger *slog.Logger
}

// NewLoggingRecognizer creates a new LoggingRecognizer.
func NewLoggingRecognizer(next pagecap.Recognizer, logger *slog.Logger) *LoggingRecognizer {
	return &LoggingRecognizer{next: next, logger: logger}
}

// Recognize logs the recognition outcome and delegates to the wrapped
// recognizer.
func (r *LoggingRecognizer) Recognize(ctx context.Context, image []byte) (result *pagecap.OCRResult, err error) {
	defer func(begin time.Time) {
		var chars int
		var confidence float64
		if result != nil {
			chars = len(result.Text)
			confidence = result.Confidence
		}
		r.logger.Info("recognize",
			"bytes", len(image),
			"chars", chars,
			"confidence", confidence,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Recognize(ctx, image)
}

// Close delegates to the wrapped recognizer.
func (r *LoggingRecognizer) Close() error {
	return r.next.Close()
}
