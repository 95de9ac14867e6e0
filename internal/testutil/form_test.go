package testutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvas_DrawsElements(t *testing.T) {
	c := NewCanvas(200, 100)
	c.OutlineRect(10, 10, 60, 60, 2)
	c.Checkbox(100, 20, 20, true)

	assert.Equal(t, color.RGBA{0, 0, 0, 255}, c.Img.RGBAAt(10, 30))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, c.Img.RGBAAt(30, 30))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, c.Img.RGBAAt(110, 30))
}

func TestCanvas_TextBounds(t *testing.T) {
	c := NewCanvas(200, 100)
	r := c.Text(20, 40, "Name:")
	assert.Equal(t, 20, r.Min.X)
	assert.Equal(t, 40, r.Min.Y)
	assert.Equal(t, 55, r.Max.X)
	assert.Equal(t, 13, r.Dy())
}

func TestSavePNGAndRoot(t *testing.T) {
	dir := t.TempDir()
	path := SavePNG(t, NewCanvas(10, 10).Image(), dir, "page.png")
	assert.True(t, FileExists(path))

	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(root+"/go.mod"))
}
