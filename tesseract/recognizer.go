// Package tesseract provides frame text recognition backed by a local
// Tesseract engine.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fwojciec/pagecap"
	"github.com/otiai10/gosseract/v2"
)

// Ensure Recognizer implements pagecap.Recognizer at compile time.
var _ pagecap.Recognizer = (*Recognizer)(nil)

// Recognizer extracts text from frame images using gosseract. One engine
// instance is reused across frames and released by Close.
//
// gosseract clients are not safe for concurrent use, so Recognize
// serializes access internally.
type Recognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
	closed bool
}

// NewRecognizer creates a Recognizer. langs are Tesseract language codes
// like "eng" or "jpn"; when empty the engine default applies. Close must
// be called when the Recognizer is no longer needed.
func NewRecognizer(langs ...string) (*Recognizer, error) {
	client := gosseract.NewClient()
	if len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	return &Recognizer{client: client}, nil
}

// Recognize runs OCR on a single encoded image and returns the recognized
// text with word-level bounding boxes.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (*pagecap.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, pagecap.Errorf(pagecap.EUNAVAILABLE, "recognizer is closed")
	}

	if err := r.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	words, avgConf := extractWords(r.client)

	return &pagecap.OCRResult{
		Text:       strings.TrimSpace(text),
		Confidence: avgConf,
		Words:      words,
	}, nil
}

// extractWords collects word-level boxes. Tesseract reports confidence in
// percent; results carry it normalized to 0..1.
func extractWords(c *gosseract.Client) ([]pagecap.OCRWord, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	words := make([]pagecap.OCRWord, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		words = append(words, pagecap.OCRWord{
			Text:       b.Word,
			Confidence: conf,
			Box: pagecap.Rect{
				X:      float64(b.Box.Min.X),
				Y:      float64(b.Box.Min.Y),
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
		})
	}
	return words, sum / float64(len(words))
}

// Close releases the Tesseract engine. Close is safe to call multiple
// times.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}
