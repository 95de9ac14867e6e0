//go:build tesseract

package tokens

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/formscan/internal/layout"
)

// ErrNoBackend is never returned by the Tesseract build; it exists so callers compile either way.
var ErrNoBackend = errors.New("tokens: no recognizer backend linked")

type tesseractRecognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
	opts   RecognizerOptions
}

func newDefaultRecognizer(opts RecognizerOptions) (Recognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(opts.Language, "+")...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set language %q: %w", opts.Language, err)
	}
	return &tesseractRecognizer{client: client, opts: opts}, nil
}

// Recognize runs Tesseract at word level. The client is not safe for concurrent use, so calls
// are serialized.
func (r *tesseractRecognizer) Recognize(ctx context.Context, img image.Image) ([]layout.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	out := make([]layout.Token, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		conf := clamp01(b.Confidence / 100)
		if text == "" || conf < r.opts.MinConfidence {
			continue
		}
		rect := b.Box
		out = append(out, layout.RectToken(text,
			float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Max.X), float64(rect.Max.Y), conf))
	}
	return out, nil
}

func (r *tesseractRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		err := r.client.Close()
		r.client = nil
		return err
	}
	return nil
}
