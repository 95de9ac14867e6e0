//go:build !tesseract

package tokens

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecognizer_NoBackend(t *testing.T) {
	rec, err := NewRecognizer(RecognizerOptions{})
	require.NoError(t, err)
	defer func() { _ = rec.Close() }()

	_, err = rec.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	assert.ErrorIs(t, err, ErrNoBackend)
}
