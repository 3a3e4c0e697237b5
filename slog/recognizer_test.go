package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/mock"
	pcslog "github.com/fwojciec/pagecap/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRecognizer_Recognize(t *testing.T) {
	t.Parallel()

	t.Run("logs recognized text size and confidence", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Recognizer{
			RecognizeFn: func(ctx context.Context, image []byte) (*pagecap.OCRResult, error) {
				return &pagecap.OCRResult{Text: "hello", Confidence: 0.9}, nil
			},
		}

		rec := pcslog.NewLoggingRecognizer(inner, logger)
		result, err := rec.Recognize(context.Background(), []byte("img"))

		require.NoError(t, err)
		assert.Equal(t, "hello", result.Text)
		output := buf.String()
		assert.Contains(t, output, "recognize")
		assert.Contains(t, output, "bytes=3")
		assert.Contains(t, output, "chars=5")
		assert.Contains(t, output, "confidence=0.9")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Recognizer{
			RecognizeFn: func(ctx context.Context, image []byte) (*pagecap.OCRResult, error) {
				return nil, errors.New("engine crashed")
			},
		}

		rec := pcslog.NewLoggingRecognizer(inner, logger)
		_, err := rec.Recognize(context.Background(), []byte("img"))

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"engine crashed\"")
	})

	t.Run("delegates close", func(t *testing.T) {
		t.Parallel()

		closes := 0
		inner := &mock.Recognizer{
			CloseFn: func() error {
				closes++
				return nil
			},
		}

		rec := pcslog.NewLoggingRecognizer(inner, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		require.NoError(t, rec.Close())
		assert.Equal(t, 1, closes)
	})
}
