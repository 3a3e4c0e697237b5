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

func TestLoggingAssembler_Assemble(t *testing.T) {
	t.Parallel()

	t.Run("logs frame and page counts with the output path", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Assembler{
			AssembleFn: func(ctx context.Context, frames []pagecap.Frame, ocr []pagecap.OCRResult, opts pagecap.AssembleOptions) (*pagecap.Artifact, error) {
				return &pagecap.Artifact{Path: "/captures/capture_20260102_120405.pdf", Pages: 3}, nil
			},
		}

		asm := pcslog.NewLoggingAssembler(inner, logger)
		frames := []pagecap.Frame{{Data: []byte("a")}, {Data: []byte("b")}, {Data: []byte("c")}}
		artifact, err := asm.Assemble(context.Background(), frames, nil, pagecap.AssembleOptions{})

		require.NoError(t, err)
		assert.Equal(t, 3, artifact.Pages)
		output := buf.String()
		assert.Contains(t, output, "assemble")
		assert.Contains(t, output, "frames=3")
		assert.Contains(t, output, "pages=3")
		assert.Contains(t, output, "path=/captures/capture_20260102_120405.pdf")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Assembler{
			AssembleFn: func(ctx context.Context, frames []pagecap.Frame, ocr []pagecap.OCRResult, opts pagecap.AssembleOptions) (*pagecap.Artifact, error) {
				return nil, errors.New("no frames could be embedded")
			},
		}

		asm := pcslog.NewLoggingAssembler(inner, logger)
		_, err := asm.Assemble(context.Background(), nil, nil, pagecap.AssembleOptions{})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"no frames could be embedded\"")
	})
}
