package pagecap

import "time"

// ImageFormat selects the screenshot encoding for captured frames.
type ImageFormat string

// Supported frame encodings.
const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

// ImageEncoding describes how frames are encoded by the surface.
type ImageEncoding struct {
	Format  ImageFormat `json:"format"`
	Quality int         `json:"quality"` // JPEG quality 1-100; ignored for PNG
}

// Lossy reports whether the encoding discards image information.
func (e ImageEncoding) Lossy() bool {
	return e.Format == FormatJPEG
}

// Validate returns an error if the encoding contains invalid fields.
func (e ImageEncoding) Validate() error {
	switch e.Format {
	case FormatPNG:
		return nil
	case FormatJPEG:
		if e.Quality < 1 || e.Quality > 100 {
			return Errorf(EINVALID, "jpeg quality must be between 1 and 100, got %d", e.Quality)
		}
		return nil
	default:
		return Errorf(EINVALID, "unknown image format %q", e.Format)
	}
}

// Clip is a rectangular sub-area of the surface in CSS pixels, origin in
// the upper-left corner. A nil *Clip means the full visible surface.
type Clip struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate returns an error if the clip has non-positive dimensions.
func (c *Clip) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return Errorf(EINVALID, "clip region must have positive dimensions")
	}
	return nil
}

// CaptureConfig holds the settings for a capture run. The active session
// owns its config; all mutations go through the session's update entry
// point so an in-flight capture loop observes either the old or the new
// config between iterations, never a partially-applied merge.
type CaptureConfig struct {
	// TotalPages is the number of pages the capture loop collects.
	TotalPages int `json:"totalPages"`

	// PageDelay is the minimum dwell on each page before the stability
	// detector runs.
	PageDelay time.Duration `json:"pageDelay"`

	// Clip restricts capture to a sub-area of the surface. Nil captures
	// the full viewport.
	Clip *Clip `json:"clip,omitempty"`

	// RetryAttempts bounds retries of screenshot and page-advance actions.
	RetryAttempts int `json:"retryAttempts"`

	// RetryDelay is the fixed delay between retry attempts.
	RetryDelay time.Duration `json:"retryDelay"`

	// Encoding selects the captured frame encoding.
	Encoding ImageEncoding `json:"encoding"`

	// MemoryCeiling is the accumulated frame byte size above 80% of which
	// the session emits memory warnings. No hard limit is enforced.
	MemoryCeiling int64 `json:"memoryCeiling"`

	// OCREnabled adds an invisible text layer to the assembled document.
	OCREnabled bool `json:"ocrEnabled"`

	// AdvanceKey is the DOM key name pressed to turn pages.
	AdvanceKey string `json:"advanceKey"`
}

// Default capture settings.
const (
	DefaultTotalPages    = 10
	DefaultPageDelay     = 2 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
	DefaultMemoryCeiling = 1 << 30 // 1 GiB
	DefaultAdvanceKey    = "ArrowRight"
)

// DefaultConfig returns a CaptureConfig with default settings.
func DefaultConfig() CaptureConfig {
	return CaptureConfig{
		TotalPages:    DefaultTotalPages,
		PageDelay:     DefaultPageDelay,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
		Encoding:      ImageEncoding{Format: FormatPNG},
		MemoryCeiling: DefaultMemoryCeiling,
		AdvanceKey:    DefaultAdvanceKey,
	}
}

// Validate returns an error if the config contains invalid fields.
func (c *CaptureConfig) Validate() error {
	if c.TotalPages < 1 {
		return Errorf(EINVALID, "total pages must be at least 1, got %d", c.TotalPages)
	}
	if c.PageDelay < 0 {
		return Errorf(EINVALID, "page delay must not be negative")
	}
	if c.RetryAttempts < 1 {
		return Errorf(EINVALID, "retry attempts must be at least 1, got %d", c.RetryAttempts)
	}
	if c.RetryDelay < 0 {
		return Errorf(EINVALID, "retry delay must not be negative")
	}
	if err := c.Encoding.Validate(); err != nil {
		return err
	}
	if c.Clip != nil {
		if err := c.Clip.Validate(); err != nil {
			return err
		}
	}
	if c.MemoryCeiling < 1 {
		return Errorf(EINVALID, "memory ceiling must be positive")
	}
	if c.AdvanceKey == "" {
		return Errorf(EINVALID, "advance key required")
	}
	return nil
}
