// Package testutil draws synthetic form pages and writes fixtures for tests.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Canvas is a white page that form elements can be drawn onto.
type Canvas struct {
	Img  *image.RGBA
	Face font.Face
}

// NewCanvas returns a white page of the given size.
func NewCanvas(width, height int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return &Canvas{Img: img, Face: basicfont.Face7x13}
}

// FillRect paints the half-open rectangle [x0,x1)x[y0,y1) with col.
func (c *Canvas) FillRect(x0, y0, x1, y1 int, col color.Color) *Canvas {
	draw.Draw(c.Img, image.Rect(x0, y0, x1, y1), &image.Uniform{col}, image.Point{}, draw.Src)
	return c
}

// OutlineRect draws a black rectangle outline of the given thickness inside [x0,x1)x[y0,y1).
func (c *Canvas) OutlineRect(x0, y0, x1, y1, thickness int) *Canvas {
	c.FillRect(x0, y0, x1, y0+thickness, color.Black)
	c.FillRect(x0, y1-thickness, x1, y1, color.Black)
	c.FillRect(x0, y0, x0+thickness, y1, color.Black)
	c.FillRect(x1-thickness, y0, x1, y1, color.Black)
	return c
}

// Checkbox draws a square checkbox with its top-left corner at (x, y). A filled box is
// painted solid.
func (c *Canvas) Checkbox(x, y, size int, filled bool) *Canvas {
	if filled {
		return c.FillRect(x, y, x+size, y+size, color.Black)
	}
	return c.OutlineRect(x, y, x+size, y+size, 2)
}

// Text draws s with its top-left corner at (x, y) and returns the bounds of the line box.
func (c *Canvas) Text(x, y int, s string) image.Rectangle {
	m := c.Face.Metrics()
	d := &font.Drawer{
		Dst:  c.Img,
		Src:  &image.Uniform{color.Black},
		Face: c.Face,
		Dot:  fixed.P(x, y+m.Ascent.Ceil()),
	}
	d.DrawString(s)
	w := font.MeasureString(c.Face, s).Ceil()
	return image.Rect(x, y, x+w, y+m.Ascent.Ceil()+m.Descent.Ceil())
}

// Image returns the page as an image.Image.
func (c *Canvas) Image() image.Image { return c.Img }

// Scaled returns the page resized by factor, useful for making text look larger.
func (c *Canvas) Scaled(factor float64) image.Image {
	b := c.Img.Bounds()
	return imaging.Resize(c.Img, int(float64(b.Dx())*factor), 0, imaging.NearestNeighbor)
}

// SavePNG encodes img as PNG into dir/name and returns the path.
func SavePNG(t *testing.T, img image.Image, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	f, err := os.Create(path) //nolint:gosec // G304: test path
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()
	require.NoError(t, png.Encode(f, img))
	return path
}
