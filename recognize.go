package pagecap

import "context"

// Rect is a bounding box in image pixel coordinates with the origin in
// the upper-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OCRWord is a single recognized token.
type OCRWord struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..1
	Box        Rect    `json:"boundingBox"`
}

// OCRResult is the recognized text for one frame. Results align by index
// with the frame sequence that produced them.
type OCRResult struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"` // 0..1, averaged over words
	Words      []OCRWord `json:"words,omitempty"`
}

// Recognizer extracts text from a captured frame image.
// Implementations hide the OCR engine behind this contract; word-level
// detail is optional and may be empty for engines that only return text.
type Recognizer interface {
	// Recognize runs OCR on a single encoded image.
	Recognize(ctx context.Context, image []byte) (*OCRResult, error)

	// Close releases engine resources allocated for the run.
	// Must be called when the Recognizer is no longer needed.
	Close() error
}
