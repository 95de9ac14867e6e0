package vision

import (
	"image"
	"log/slog"
	"sort"

	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/utils"
)

// DetectSectionBoxes finds large drawn rectangles and names each one after the text
// sitting on its top edge. Both the outer outline of each edge component and the enclosed
// regions inside it are candidates, so a page frame split by ruled lines yields one box per
// cell. Results are de-duplicated and ordered top to bottom.
func (d *Detector) DetectSectionBoxes(img image.Image, tokens []layout.Token) []layout.VisualBox {
	if !usable(img) {
		return nil
	}
	cfg := d.cfg
	gray := newGrayRaster(img)
	edges := edgeMap(gray, cfg.EdgeLowThreshold, cfg.EdgeHighThreshold)
	edges = dilate(edges, gray.w, gray.h, cfg.DilateKernel, cfg.DilateIterations)
	comps, labels := labelComponents(edges, gray.w, gray.h)
	holes, holeLabels := enclosedRegions(edges, gray.w, gray.h)

	pageArea := float64(gray.w * gray.h)
	minArea := pageArea * cfg.MinBoxAreaRatio
	maxArea := pageArea * cfg.MaxBoxAreaRatio

	var boxes []layout.VisualBox
	consider := func(labels []int, c component) {
		r := c.bounds()
		if float64(r.Dx()*r.Dy()) <= minArea {
			return
		}
		contour := traceOuterContour(labels, gray.w, gray.h, c)
		area := utils.PolygonArea(contour)
		if area <= minArea || area >= maxArea {
			return
		}
		approx := utils.SimplifyClosedPolygon(contour, cfg.ContourApproxEpsilon*utils.Perimeter(contour))
		if len(approx) < 4 {
			return
		}
		bb := utils.BoundingBox(contour)
		x, y := int(bb.MinX), int(bb.MinY)
		w, h := int(bb.Width())+1, int(bb.Height())+1
		aspect := float64(w) / float64(h)
		if aspect <= cfg.SectionBoxAspectMin || h <= cfg.SectionBoxMinHeight {
			return
		}
		boxes = append(boxes, layout.VisualBox{
			X: x, Y: y, Width: w, Height: h,
			Name: d.sectionName(x, y, w, tokens),
		})
	}
	for _, c := range comps {
		consider(labels, c)
	}
	for _, c := range holes {
		consider(holeLabels, c)
	}

	boxes = RemoveOverlappingBoxes(boxes, cfg.OverlapThreshold)
	sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].Y < boxes[j].Y })
	slog.Debug("Detected section boxes", "components", len(comps), "holes", len(holes), "boxes", len(boxes))
	return boxes
}

// sectionName picks the topmost, then leftmost, token whose left edge lies within the
// box columns and whose top is close to the box top.
func (d *Detector) sectionName(x, y, w int, tokens []layout.Token) string {
	best := -1
	for i, t := range tokens {
		if len(t.Polygon) == 0 {
			continue
		}
		tx, ty := t.XMin(), t.YMin()
		if tx < float64(x) || tx > float64(x+w) {
			continue
		}
		if dy := ty - float64(y); dy >= d.cfg.SectionNameYTolerance || dy <= -d.cfg.SectionNameYTolerance {
			continue
		}
		if best < 0 || ty < tokens[best].YMin() || (ty == tokens[best].YMin() && tx < tokens[best].XMin()) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return tokens[best].Trimmed()
}

// RemoveOverlappingBoxes keeps boxes largest first and drops any box whose overlap with an
// already kept box covers more than threshold of its own area.
func RemoveOverlappingBoxes(boxes []layout.VisualBox, threshold float64) []layout.VisualBox {
	if len(boxes) < 2 {
		return append([]layout.VisualBox(nil), boxes...)
	}
	sorted := append([]layout.VisualBox(nil), boxes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Area() > sorted[j].Area() })

	kept := make([]layout.VisualBox, 0, len(sorted))
	for _, b := range sorted {
		own := float64(b.Area())
		drop := own <= 0
		for _, k := range kept {
			if drop {
				break
			}
			if b.Box().Intersect(k.Box()).Area()/own > threshold {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, b)
		}
	}
	return kept
}
