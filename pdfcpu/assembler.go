// Package pdfcpu assembles captured frames into PDF documents using the
// pdfcpu library. Each frame becomes one page at the frame's native pixel
// dimensions, with an optional invisible text layer built from OCR results.
package pdfcpu

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/pagecap"
	"github.com/fwojciec/pagecap/fs"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// textLayerDesc styles the OCR stamp: tiny glyphs at near-zero opacity
// anchored to the lower-left corner, so the page stays searchable without
// visibly changing.
const textLayerDesc = "font:Helvetica, points:4, scale:1 abs, pos:bl, off:4 4, rot:0, op:0.03"

// DefaultLocation is the time zone used for output file names when no
// other location is configured.
var DefaultLocation = time.FixedZone("UTC+9", 9*60*60)

// Assembler writes frame sequences to PDF files under an fs.Store.
type Assembler struct {
	store  *fs.Store
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

var _ pagecap.Assembler = (*Assembler)(nil)

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithLocation sets the time zone used for output file names.
func WithLocation(loc *time.Location) AssemblerOption {
	return func(a *Assembler) {
		a.loc = loc
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// NewAssembler creates an Assembler that persists documents via store.
func NewAssembler(store *fs.Store, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		store:  store,
		loc:    DefaultLocation,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds a PDF with one page per frame and saves it to the store.
// Frames that cannot be embedded are skipped. OCR results align with frames
// by index; pages whose aligned result has text get an invisible text layer
// and the output file name gains an "_ocr" suffix.
func (a *Assembler) Assemble(ctx context.Context, frames []pagecap.Frame, ocr []pagecap.OCRResult, opts pagecap.AssembleOptions) (*pagecap.Artifact, error) {
	if len(frames) == 0 {
		return nil, pagecap.Errorf(pagecap.EINVALID, "no frames to assemble")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	// Embed frames one at a time so a single corrupt image costs one
	// page, not the whole document. embedded maps output pages back to
	// frame indices: page i+1 shows frames[embedded[i]].
	var (
		doc      []byte
		embedded []int
	)
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := appendPage(doc, frame.Data, conf)
		if err != nil {
			a.logger.Warn("skipping frame that could not be embedded", "frame", i, "err", err)
			continue
		}
		doc = next
		embedded = append(embedded, i)
	}
	if len(embedded) == 0 {
		return nil, pagecap.Errorf(pagecap.EINTERNAL, "no frames could be embedded")
	}

	withOCR := false
	for page, idx := range embedded {
		if idx >= len(ocr) {
			continue
		}
		text := strings.TrimSpace(ocr[idx].Text)
		if text == "" {
			continue
		}
		next, err := stampText(doc, page+1, text, conf)
		if err != nil {
			a.logger.Warn("skipping text layer", "page", page+1, "err", err)
			continue
		}
		doc = next
		withOCR = true
	}

	capturedAt := opts.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = a.now()
	}

	if opts.EmbedMetadata {
		next, err := addProperties(doc, opts, capturedAt, conf)
		if err != nil {
			a.logger.Warn("document metadata could not be embedded", "err", err)
		} else {
			doc = next
		}
	}

	name := "capture_" + capturedAt.In(a.loc).Format("20060102_150405")
	if withOCR {
		name += "_ocr"
	}
	name += ".pdf"

	path, err := a.store.SaveDocument(name, doc)
	if err != nil {
		return nil, err
	}

	return &pagecap.Artifact{
		Path:      path,
		Pages:     len(embedded),
		ByteSize:  int64(len(doc)),
		OCR:       withOCR,
		CreatedAt: capturedAt,
	}, nil
}

// appendPage imports one image as a new page. A nil doc starts a fresh
// document; otherwise the page is appended.
func appendPage(doc, image []byte, conf *model.Configuration) ([]byte, error) {
	var rs io.ReadSeeker
	if len(doc) > 0 {
		rs = bytes.NewReader(doc)
	}
	var buf bytes.Buffer
	imgs := []io.Reader{bytes.NewReader(image)}
	if err := api.ImportImages(rs, &buf, imgs, pdfcpu.DefaultImportConfig(), conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stampText adds the recognized text to a single page as a watermark so
// faint it is effectively invisible, while remaining selectable and
// searchable in PDF viewers.
func stampText(doc []byte, page int, text string, conf *model.Configuration) ([]byte, error) {
	wm, err := api.TextWatermark(text, textLayerDesc, true, false, types.POINTS)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	pages := []string{strconv.Itoa(page)}
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, pages, wm, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// addProperties records capture provenance as document properties.
func addProperties(doc []byte, opts pagecap.AssembleOptions, capturedAt time.Time, conf *model.Configuration) ([]byte, error) {
	props := map[string]string{
		"capturedAt": capturedAt.UTC().Format(time.RFC3339),
	}
	if opts.Title != "" {
		props["title"] = opts.Title
	}
	if opts.SourceURL != "" {
		props["source"] = opts.SourceURL
	}
	var buf bytes.Buffer
	if err := api.AddProperties(bytes.NewReader(doc), &buf, props, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
