package pdfcpu_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/fs"
	"github.com/fwojciec/pagecap/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestAssembler_Assemble(t *testing.T) {
	t.Parallel()

	t.Run("assembles one page per frame", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{
			pngFrame(t, color.RGBA{R: 255, A: 255}),
			pngFrame(t, color.RGBA{G: 255, A: 255}),
			pngFrame(t, color.RGBA{B: 255, A: 255}),
		}

		artifact, err := a.Assemble(context.Background(), frames, nil, pagecap.AssembleOptions{})
		require.NoError(t, err)

		assert.Equal(t, 3, artifact.Pages)
		assert.False(t, artifact.OCR)
		assert.True(t, artifact.CreatedAt.Equal(fixedNow))

		name := filepath.Base(artifact.Path)
		assert.True(t, strings.HasPrefix(name, "capture_"))
		assert.True(t, strings.HasSuffix(name, ".pdf"))
		assert.NotContains(t, name, "_ocr")

		info, err := os.Stat(artifact.Path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), artifact.ByteSize)
		assert.Equal(t, 3, pageCount(t, artifact.Path))
	})

	t.Run("skips frames that cannot be embedded", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{
			pngFrame(t, color.RGBA{R: 255, A: 255}),
			{Data: []byte("not an image")},
			pngFrame(t, color.RGBA{B: 255, A: 255}),
		}

		artifact, err := a.Assemble(context.Background(), frames, nil, pagecap.AssembleOptions{})
		require.NoError(t, err)

		assert.Equal(t, 2, artifact.Pages)
		assert.Equal(t, 2, pageCount(t, artifact.Path))
	})

	t.Run("fails when no frame can be embedded", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{
			{Data: []byte("junk")},
			{Data: nil},
		}

		_, err := a.Assemble(context.Background(), frames, nil, pagecap.AssembleOptions{})
		require.Error(t, err)
		assert.Equal(t, pagecap.EINTERNAL, pagecap.ErrorCode(err))
	})

	t.Run("requires at least one frame", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)

		_, err := a.Assemble(context.Background(), nil, nil, pagecap.AssembleOptions{})
		require.Error(t, err)
		assert.Equal(t, pagecap.EINVALID, pagecap.ErrorCode(err))
	})

	t.Run("embeds an invisible text layer", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{
			pngFrame(t, color.RGBA{R: 255, A: 255}),
			pngFrame(t, color.RGBA{G: 255, A: 255}),
		}
		ocr := []pagecap.OCRResult{
			{Text: "first page words", Confidence: 0.95},
			{Text: "second page words", Confidence: 0.9},
		}

		artifact, err := a.Assemble(context.Background(), frames, ocr, pagecap.AssembleOptions{})
		require.NoError(t, err)

		assert.True(t, artifact.OCR)
		assert.Contains(t, filepath.Base(artifact.Path), "_ocr")
		assert.Equal(t, 2, pageCount(t, artifact.Path))
	})

	t.Run("ignores empty recognition results", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{
			pngFrame(t, color.RGBA{R: 255, A: 255}),
			pngFrame(t, color.RGBA{G: 255, A: 255}),
		}
		ocr := []pagecap.OCRResult{{Text: "   "}}

		artifact, err := a.Assemble(context.Background(), frames, ocr, pagecap.AssembleOptions{})
		require.NoError(t, err)

		assert.False(t, artifact.OCR)
		assert.NotContains(t, filepath.Base(artifact.Path), "_ocr")
	})

	t.Run("embeds metadata without corrupting the document", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{pngFrame(t, color.RGBA{R: 255, A: 255})}
		opts := pagecap.AssembleOptions{
			Title:         "Example Book",
			SourceURL:     "https://reader.example/book",
			EmbedMetadata: true,
		}

		artifact, err := a.Assemble(context.Background(), frames, nil, opts)
		require.NoError(t, err)
		assert.Equal(t, 1, pageCount(t, artifact.Path))
	})

	t.Run("names files with the configured clock and location", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{pngFrame(t, color.RGBA{R: 255, A: 255})}

		artifact, err := a.Assemble(context.Background(), frames, nil, pagecap.AssembleOptions{})
		require.NoError(t, err)

		// 03:04:05 UTC is 12:04:05 in the default UTC+9 location.
		assert.Equal(t, "capture_20260102_120405.pdf", filepath.Base(artifact.Path))
	})

	t.Run("honors an explicit location", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t, pdfcpu.WithLocation(time.UTC))
		frames := []pagecap.Frame{pngFrame(t, color.RGBA{R: 255, A: 255})}

		artifact, err := a.Assemble(context.Background(), frames, nil, pagecap.AssembleOptions{})
		require.NoError(t, err)

		assert.Equal(t, "capture_20260102_030405.pdf", filepath.Base(artifact.Path))
	})

	t.Run("prefers the capture timestamp from options", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{pngFrame(t, color.RGBA{R: 255, A: 255})}
		capturedAt := time.Date(2025, 12, 31, 23, 30, 0, 0, time.UTC)

		artifact, err := a.Assemble(context.Background(), frames, nil, pagecap.AssembleOptions{CapturedAt: capturedAt})
		require.NoError(t, err)

		// 23:30 UTC on Dec 31 is 08:30 on Jan 1 in UTC+9.
		assert.Equal(t, "capture_20260101_083000.pdf", filepath.Base(artifact.Path))
		assert.True(t, artifact.CreatedAt.Equal(capturedAt))
	})

	t.Run("stops on a canceled context", func(t *testing.T) {
		t.Parallel()
		a := newAssembler(t)
		frames := []pagecap.Frame{pngFrame(t, color.RGBA{R: 255, A: 255})}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := a.Assemble(ctx, frames, nil, pagecap.AssembleOptions{})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func newAssembler(t *testing.T, opts ...pdfcpu.AssemblerOption) *pdfcpu.Assembler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []pdfcpu.AssemblerOption{
		pdfcpu.WithLogger(logger),
		pdfcpu.WithClock(func() time.Time { return fixedNow }),
	}
	return pdfcpu.NewAssembler(fs.NewStore(t.TempDir()), append(base, opts...)...)
}

func pngFrame(t *testing.T, c color.RGBA) pagecap.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return pagecap.Frame{Data: buf.Bytes()}
}

func pageCount(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n, err := api.PageCount(f, nil)
	require.NoError(t, err)
	return n
}
