package gemini

import (
	"context"
	"net/http"
	"strings"

	"github.com/fwojciec/pagecap"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// nominalConfidence is reported for non-empty transcriptions. The API
// exposes no recognition confidence, and a fixed value keeps results
// comparable with engines that do.
const nominalConfidence = 0.9

// TranscriptionPrompt is the user prompt sent with every frame image.
const TranscriptionPrompt = "Transcribe all text in this image."

// Ensure Recognizer implements pagecap.Recognizer at compile time.
var _ pagecap.Recognizer = (*Recognizer)(nil)

// Recognizer implements pagecap.Recognizer using Google Gemini vision.
// It returns plain transcribed text without word boxes.
type Recognizer struct {
	client *genai.Client
}

// NewRecognizer creates a new Recognizer.
func NewRecognizer(client *genai.Client) *Recognizer {
	return &Recognizer{client: client}
}

// Recognize transcribes the text visible in a single encoded image.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (*pagecap.OCRResult, error) {
	if len(image) == 0 {
		return nil, pagecap.Errorf(pagecap.EINVALID, "image required")
	}

	result, err := r.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{
				{Text: TranscriptionPrompt},
				{InlineData: &genai.Blob{
					MIMEType: http.DetectContentType(image),
					Data:     image,
				}},
			},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, pagecap.Errorf(pagecap.EINTERNAL, "gemini returned nil result")
	}

	text := strings.TrimSpace(result.Text())
	res := &pagecap.OCRResult{Text: text}
	if text != "" {
		res.Confidence = nominalConfidence
	}
	return res, nil
}

// Close implements pagecap.Recognizer. The shared client holds no
// per-run resources to release.
func (r *Recognizer) Close() error {
	return nil
}

// BuildConfig returns the GenerateContentConfig for transcription calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a transcription engine. Return the text visible in the image exactly as written, preserving reading order. Return nothing but the transcribed text. If the image contains no text, return an empty response.",
			}},
		},
		Temperature: &temp,
	}
}
