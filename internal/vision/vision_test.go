package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSectionBoxes_FindsAndNamesBoxes(t *testing.T) {
	page := testutil.NewCanvas(600, 400).
		OutlineRect(20, 220, 580, 380, 2).
		OutlineRect(20, 50, 580, 200, 2)
	tokens := []layout.Token{
		layout.RectToken("  GP DETAILS ", 30, 55, 110, 68, 0.9),
		layout.RectToken("CONSENT", 30, 228, 90, 241, 0.9),
		layout.RectToken("far away", 30, 300, 90, 313, 0.9),
	}

	d := NewDetector(DefaultConfig())
	boxes := d.DetectSectionBoxes(page.Image(), tokens)

	require.Len(t, boxes, 2)
	assert.Less(t, boxes[0].Y, boxes[1].Y)
	assert.Equal(t, "GP DETAILS", boxes[0].Name)
	assert.Equal(t, "CONSENT", boxes[1].Name)

	assert.InDelta(t, 20, boxes[0].X, 3)
	assert.InDelta(t, 50, boxes[0].Y, 3)
	assert.InDelta(t, 560, boxes[0].Width, 6)
	assert.InDelta(t, 150, boxes[0].Height, 6)
}

func TestDetectSectionBoxes_RejectsSmallAndFlatShapes(t *testing.T) {
	page := testutil.NewCanvas(600, 400).
		OutlineRect(20, 20, 60, 60, 2).  // too small for the page
		OutlineRect(20, 100, 580, 120, 2) // too short
	d := NewDetector(DefaultConfig())
	assert.Empty(t, d.DetectSectionBoxes(page.Image(), nil))
}

func TestDetectSectionBoxes_NoImage(t *testing.T) {
	d := NewDetector(DefaultConfig())
	assert.Nil(t, d.DetectSectionBoxes(nil, nil))
	assert.Nil(t, d.DetectSectionBoxes(image.NewGray(image.Rect(0, 0, 2, 2)), nil))
}

func TestDetectSectionBoxes_UnnamedBox(t *testing.T) {
	page := testutil.NewCanvas(600, 400).OutlineRect(20, 50, 580, 200, 2)
	d := NewDetector(DefaultConfig())
	boxes := d.DetectSectionBoxes(page.Image(), []layout.Token{
		layout.RectToken("below", 30, 120, 70, 133, 0.9),
	})
	require.Len(t, boxes, 1)
	assert.Empty(t, boxes[0].Name)
}

func TestRemoveOverlappingBoxes(t *testing.T) {
	outer := layout.VisualBox{X: 0, Y: 0, Width: 100, Height: 100}
	inner := layout.VisualBox{X: 10, Y: 10, Width: 50, Height: 50}
	partial := layout.VisualBox{X: 80, Y: 0, Width: 100, Height: 100} // 20% inside outer
	separate := layout.VisualBox{X: 300, Y: 300, Width: 10, Height: 10}

	kept := RemoveOverlappingBoxes([]layout.VisualBox{inner, separate, outer, partial}, 0.5)

	assert.Equal(t, []layout.VisualBox{outer, partial, separate}, kept)
	assert.Empty(t, RemoveOverlappingBoxes(nil, 0.5))
}

func TestDetectCheckboxes_FillStates(t *testing.T) {
	page := testutil.NewCanvas(400, 200).
		Checkbox(50, 50, 20, false).
		Checkbox(150, 50, 20, true).
		Checkbox(250, 50, 20, false).
		Checkbox(300, 120, 60, false). // too large
		OutlineRect(50, 120, 90, 140, 2) // not square
	tokens := []layout.Token{
		layout.RectToken("X", 255, 54, 265, 66, 0.8), // mark written into the third box
		layout.RectToken("Yes", 80, 52, 110, 65, 0.9),
	}

	d := NewDetector(DefaultConfig())
	marks := d.DetectCheckboxes(page.Image(), tokens)

	require.Len(t, marks, 3)
	byX := map[int]layout.CheckboxMark{}
	for _, m := range marks {
		byX[m.X] = m
	}
	require.Contains(t, byX, 50)
	require.Contains(t, byX, 150)
	require.Contains(t, byX, 250)
	assert.False(t, byX[50].Filled)
	assert.True(t, byX[150].Filled)
	assert.True(t, byX[250].Filled)

	assert.Equal(t, 20, byX[50].Width)
	assert.Equal(t, 20, byX[50].Height)
	assert.Equal(t, 60.0, byX[50].Center().X)
	assert.Equal(t, 60.0, byX[50].Center().Y)
}

func TestDetectCheckboxes_BlankTextDoesNotFill(t *testing.T) {
	page := testutil.NewCanvas(200, 100).Checkbox(50, 40, 20, false)
	tokens := []layout.Token{layout.RectToken("   ", 52, 42, 68, 58, 0.5)}
	marks := NewDetector(DefaultConfig()).DetectCheckboxes(page.Image(), tokens)
	require.Len(t, marks, 1)
	assert.False(t, marks[0].Filled)
}

func TestIsBold(t *testing.T) {
	d := NewDetector(DefaultConfig())
	tok := layout.RectToken("HEADER", 10, 10, 60, 30, 0.9)

	heavy := testutil.NewCanvas(100, 40).FillRect(10, 12, 60, 28, color.Black)
	assert.True(t, d.IsBold(tok, heavy.Image()))
	assert.InDelta(t, 0.8, d.InkDensity(tok, heavy.Image()), 1e-9)

	light := testutil.NewCanvas(100, 40).
		FillRect(10, 15, 60, 16, color.Black).
		FillRect(10, 25, 60, 26, color.Black)
	assert.False(t, d.IsBold(tok, light.Image()))

	blank := testutil.NewCanvas(100, 40)
	assert.False(t, d.IsBold(tok, blank.Image()))
	assert.Zero(t, d.InkDensity(tok, blank.Image()))

	outside := layout.RectToken("off page", 500, 500, 600, 520, 0.9)
	assert.False(t, d.IsBold(outside, heavy.Image()))
	assert.False(t, d.IsBold(tok, nil))
}

func TestNewDetector_FillsDefaults(t *testing.T) {
	d := NewDetector(Config{CheckboxFillThreshold: 0.7})
	cfg := d.Config()
	assert.InDelta(t, 0.7, cfg.CheckboxFillThreshold, 1e-12)
	assert.Equal(t, DefaultConfig().BinaryThreshold, cfg.BinaryThreshold)
	assert.InDelta(t, DefaultConfig().BoldInkDensityThreshold, cfg.BoldInkDensityThreshold, 1e-12)
}

func TestDetectSectionBoxes_FramedPageWithDivider(t *testing.T) {
	page := testutil.NewCanvas(600, 400).
		OutlineRect(3, 3, 597, 397, 2).
		FillRect(3, 199, 597, 201, color.Black)
	tokens := []layout.Token{
		layout.RectToken("GP DETAILS", 20, 15, 100, 28, 0.9),
		layout.RectToken("CONSENT", 20, 212, 80, 225, 0.9),
	}

	boxes := NewDetector(DefaultConfig()).DetectSectionBoxes(page.Image(), tokens)

	require.Len(t, boxes, 2)
	assert.Equal(t, "GP DETAILS", boxes[0].Name)
	assert.Equal(t, "CONSENT", boxes[1].Name)
	assert.Less(t, boxes[0].Y+boxes[0].Height, boxes[1].Y+3)
	assert.InDelta(t, 10, boxes[0].X, 8)
	assert.InDelta(t, 580, boxes[0].Width, 12)
}

func TestEnclosedRegions(t *testing.T) {
	const w, h = 7, 7
	mask := make([]bool, w*h)
	// Ring from (1,1) to (5,5) enclosing the 3x3 block in the middle.
	for i := 1; i <= 5; i++ {
		mask[1*w+i], mask[5*w+i], mask[i*w+1], mask[i*w+5] = true, true, true, true
	}

	holes, labels := enclosedRegions(mask, w, h)

	require.Len(t, holes, 1)
	assert.Equal(t, 9, holes[0].count)
	assert.Equal(t, image.Rect(2, 2, 5, 5), holes[0].bounds())
	assert.Zero(t, labels[0])
	assert.Equal(t, holes[0].label, labels[3*w+3])
}
