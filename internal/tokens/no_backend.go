//go:build !tesseract

package tokens

import (
	"context"
	"errors"
	"image"

	"github.com/MeKo-Tech/formscan/internal/layout"
)

// ErrNoBackend is returned when no recognizer backend is linked.
var ErrNoBackend = errors.New("tokens: no recognizer backend linked; build with -tags=tesseract")

type noRecognizer struct{}

func newDefaultRecognizer(RecognizerOptions) (Recognizer, error) { return noRecognizer{}, nil }

func (noRecognizer) Recognize(context.Context, image.Image) ([]layout.Token, error) {
	return nil, ErrNoBackend
}

func (noRecognizer) Close() error { return nil }
