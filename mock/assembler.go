package mock

import (
	"context"

	"github.com/fwojciec/pagecap"
)

var _ pagecap.Assembler = (*Assembler)(nil)

// Assembler is a mock implementation of pagecap.Assembler.
type Assembler struct {
	AssembleFn func(ctx context.Context, frames []pagecap.Frame, ocr []pagecap.OCRResult, opts pagecap.AssembleOptions) (*pagecap.Artifact, error)
}

func (a *Assembler) Assemble(ctx context.Context, frames []pagecap.Frame, ocr []pagecap.OCRResult, opts pagecap.AssembleOptions) (*pagecap.Artifact, error) {
	return a.AssembleFn(ctx, frames, ocr, opts)
}
