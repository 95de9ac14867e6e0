package tokens

import (
	"context"
	"image"

	"github.com/MeKo-Tech/formscan/internal/layout"
)

// RecognizerOptions configures a live recognizer.
type RecognizerOptions struct {
	// Language is the engine language code, e.g. "eng" or "eng+deu".
	Language string
	// MinConfidence drops words scored below it, in [0,1].
	MinConfidence float64
}

// DefaultRecognizerOptions returns English with no confidence floor.
func DefaultRecognizerOptions() RecognizerOptions {
	return RecognizerOptions{Language: "eng"}
}

// Recognizer turns a page image into tokens.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]layout.Token, error)
	Close() error
}

// NewRecognizer returns the recognizer linked into this build.
// The default build has none; enable Tesseract with -tags=tesseract.
func NewRecognizer(opts RecognizerOptions) (Recognizer, error) {
	if opts.Language == "" {
		opts.Language = DefaultRecognizerOptions().Language
	}
	return newDefaultRecognizer(opts)
}
