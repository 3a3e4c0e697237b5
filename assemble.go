package pagecap

import (
	"context"
	"time"
)

// AssembleOptions control document assembly.
type AssembleOptions struct {
	// Title and SourceURL feed document metadata.
	Title     string
	SourceURL string

	// EmbedMetadata records the title, source URL and capture timestamp
	// as document properties.
	EmbedMetadata bool

	// CapturedAt is the capture time used for metadata and the output
	// file name. The zero value means "now".
	CapturedAt time.Time
}

// Artifact describes a saved output document.
type Artifact struct {
	Path      string    `json:"path"`
	Pages     int       `json:"pages"`
	ByteSize  int64     `json:"byteSize"`
	OCR       bool      `json:"ocr"`
	CreatedAt time.Time `json:"createdAt"`
}

// Assembler turns an ordered frame sequence into one output document with
// one page per frame at the frame's native pixel dimensions.
//
// ocr may be nil or shorter than frames; entries align with frames by
// index. A frame whose aligned result has non-empty text gets an
// invisible text layer so the page becomes searchable without changing
// its appearance. Per-frame embedding failures are logged and skipped;
// they never abort assembly of the remaining frames.
type Assembler interface {
	Assemble(ctx context.Context, frames []Frame, ocr []OCRResult, opts AssembleOptions) (*Artifact, error)
}
