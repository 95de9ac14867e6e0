package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBox_OrdersCorners(t *testing.T) {
	b := NewBox(10, 40, 2, 5)
	assert.Equal(t, Box{MinX: 2, MinY: 5, MaxX: 10, MaxY: 40}, b)
	assert.InDelta(t, 8.0, b.Width(), 1e-9)
	assert.InDelta(t, 35.0, b.Height(), 1e-9)
	assert.InDelta(t, 280.0, b.Area(), 1e-9)
}

func TestBox_IntersectAndArea(t *testing.T) {
	a := NewBox(0, 0, 10, 10)
	b := NewBox(5, 5, 20, 20)
	assert.InDelta(t, 25.0, a.Intersect(b).Area(), 1e-9)

	disjoint := NewBox(30, 30, 40, 40)
	assert.Zero(t, a.Intersect(disjoint).Area())
}

func TestBox_ContainsAndExpand(t *testing.T) {
	b := NewBox(10, 10, 20, 20)
	assert.True(t, b.ContainsPoint(Point{X: 10, Y: 20}))
	assert.False(t, b.ContainsPoint(Point{X: 8, Y: 15}))
	assert.True(t, b.Expand(2).ContainsPoint(Point{X: 8, Y: 15}))
	assert.Equal(t, Point{X: 15, Y: 15}, b.Center())
}

func TestBox_Corners(t *testing.T) {
	b := NewBox(1, 2, 3, 4)
	assert.Equal(t, []Point{{1, 2}, {3, 2}, {3, 4}, {1, 4}}, b.Corners())
}

func TestBoundingBox(t *testing.T) {
	assert.Equal(t, Box{}, BoundingBox(nil))
	pts := []Point{{5, 7}, {1, 9}, {3, 2}}
	assert.Equal(t, Box{MinX: 1, MinY: 2, MaxX: 5, MaxY: 9}, BoundingBox(pts))
}

func TestBox_ToRectClamps(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 50)
	r := NewBox(-10, 10.4, 120, 60).ToRect(bounds)
	assert.Equal(t, image.Rect(0, 10, 100, 50), r)

	outside := NewBox(200, 200, 300, 300).ToRect(bounds)
	assert.True(t, outside.Empty())
}

func TestCropImageBox(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := range 30 {
		for x := range 40 {
			img.Set(x, y, color.White)
		}
	}
	crop := CropImageBox(img, NewBox(5, 5, 15, 25))
	require.NotNil(t, crop)
	assert.Equal(t, 10, crop.Bounds().Dx())
	assert.Equal(t, 20, crop.Bounds().Dy())

	empty := CropImageBox(img, NewBox(50, 50, 60, 60))
	assert.True(t, empty.Bounds().Empty())
}

func TestImageProcessingError_Unwraps(t *testing.T) {
	inner := assert.AnError
	err := &ImageProcessingError{Operation: "decode", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "decode")
}
