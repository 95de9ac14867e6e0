package vision

import (
	"image"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/utils"
)

// DetectCheckboxes finds small square marks and decides whether each is filled, either by
// ink coverage or by a recognized glyph sitting on it.
func (d *Detector) DetectCheckboxes(img image.Image, tokens []layout.Token) []layout.CheckboxMark {
	if !usable(img) {
		return nil
	}
	cfg := d.cfg
	gray := newGrayRaster(img)
	mask := binaryInverse(gray, cfg.BinaryThreshold)
	comps, labels := labelComponents(mask, gray.w, gray.h)

	var marks []layout.CheckboxMark
	for _, c := range comps {
		r := c.bounds()
		if float64(r.Dx()*r.Dy()) <= cfg.CheckboxMinArea {
			continue
		}
		area := utils.PolygonArea(traceOuterContour(labels, gray.w, gray.h, c))
		if area <= cfg.CheckboxMinArea || area >= cfg.CheckboxMaxArea {
			continue
		}
		aspect := float64(r.Dx()) / float64(r.Dy())
		if aspect <= cfg.CheckboxAspectMin || aspect >= cfg.CheckboxAspectMax {
			continue
		}
		mark := layout.CheckboxMark{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
		mark.Filled = foregroundFraction(mask, gray.w, r) > cfg.CheckboxFillThreshold ||
			d.textInside(mark, tokens)
		marks = append(marks, mark)
	}
	slog.Debug("Detected checkboxes", "components", len(comps), "checkboxes", len(marks))
	return marks
}

func (d *Detector) textInside(mark layout.CheckboxMark, tokens []layout.Token) bool {
	area := utils.NewBox(
		float64(mark.X), float64(mark.Y),
		float64(mark.X+mark.Width), float64(mark.Y+mark.Height),
	).Expand(d.cfg.TextBoxMargin)
	for _, t := range tokens {
		if len(t.Polygon) == 0 || strings.TrimSpace(t.Text) == "" {
			continue
		}
		if area.ContainsPoint(t.Bounds().Center()) {
			return true
		}
	}
	return false
}
