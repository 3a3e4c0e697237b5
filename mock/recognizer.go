package mock

import (
	"context"

	"github.com/fwojciec/pagecap"
)

var _ pagecap.Recognizer = (*Recognizer)(nil)

// Recognizer is a mock implementation of pagecap.Recognizer.
type Recognizer struct {
	RecognizeFn func(ctx context.Context, image []byte) (*pagecap.OCRResult, error)
	CloseFn     func() error
}

func (r *Recognizer) Recognize(ctx context.Context, image []byte) (*pagecap.OCRResult, error) {
	return r.RecognizeFn(ctx, image)
}

func (r *Recognizer) Close() error {
	return r.CloseFn()
}
