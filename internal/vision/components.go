package vision

import (
	"image"

	"github.com/MeKo-Tech/formscan/internal/utils"
)

// neighbours8 lists the 8-neighbourhood clockwise from east (y grows downwards).
var neighbours8 = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

// component is one 8-connected foreground region.
type component struct {
	label                  int
	count                  int
	minX, minY, maxX, maxY int
	startX, startY         int
}

// bounds returns the inclusive pixel bounds as a half-open rectangle.
func (c component) bounds() image.Rectangle {
	return image.Rect(c.minX, c.minY, c.maxX+1, c.maxY+1)
}

// labelComponents finds 8-connected foreground components. Labels start at 1 and each
// component records the first pixel met in raster order, which is its top-left boundary pixel.
func labelComponents(mask []bool, w, h int) ([]component, []int) {
	labels := make([]int, w*h)
	var comps []component
	stack := make([]int, 0, 256)

	for y := range h {
		for x := range w {
			idx := y*w + x
			if !mask[idx] || labels[idx] != 0 {
				continue
			}
			c := component{
				label: len(comps) + 1,
				minX:  x, minY: y, maxX: x, maxY: y,
				startX: x, startY: y,
			}
			labels[idx] = c.label
			stack = append(stack[:0], idx)
			for len(stack) > 0 {
				ci := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := ci%w, ci/w
				c.count++
				c.minX = min(c.minX, cx)
				c.minY = min(c.minY, cy)
				c.maxX = max(c.maxX, cx)
				c.maxY = max(c.maxY, cy)
				for _, d := range neighbours8 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if mask[ni] && labels[ni] == 0 {
						labels[ni] = c.label
						stack = append(stack, ni)
					}
				}
			}
			comps = append(comps, c)
		}
	}
	return comps, labels
}

// enclosedRegions labels the background components of mask that do not touch the image
// border. These are the holes of the foreground. Labels of border regions are zeroed.
func enclosedRegions(mask []bool, w, h int) ([]component, []int) {
	inv := make([]bool, len(mask))
	for i, v := range mask {
		inv[i] = !v
	}
	comps, labels := labelComponents(inv, w, h)

	holes := comps[:0:0]
	open := make(map[int]bool)
	for _, c := range comps {
		if c.minX == 0 || c.minY == 0 || c.maxX == w-1 || c.maxY == h-1 {
			open[c.label] = true
			continue
		}
		holes = append(holes, c)
	}
	if len(open) > 0 {
		for i, l := range labels {
			if open[l] {
				labels[i] = 0
			}
		}
	}
	return holes, labels
}

// traceOuterContour follows the outer boundary of a component clockwise using
// Moore-neighbour tracing. Points are pixel centres.
func traceOuterContour(labels []int, w, h int, c component) []utils.Point {
	isLabel := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == c.label
	}
	// step scans clockwise from the backtrack pixel and returns the next boundary pixel
	// together with the background pixel examined just before it.
	step := func(cx, cy, bx, by int) (int, int, int, int, bool) {
		start := 0
		for i, d := range neighbours8 {
			if d[0] == bx-cx && d[1] == by-cy {
				start = i
				break
			}
		}
		px, py := bx, by
		for k := 1; k <= 8; k++ {
			d := neighbours8[(start+k)%8]
			tx, ty := cx+d[0], cy+d[1]
			if isLabel(tx, ty) {
				return tx, ty, px, py, true
			}
			px, py = tx, ty
		}
		return 0, 0, 0, 0, false
	}

	sx, sy := c.startX, c.startY
	pts := []utils.Point{{X: float64(sx), Y: float64(sy)}}
	firstX, firstY, bx, by, ok := step(sx, sy, sx-1, sy)
	if !ok {
		return pts
	}

	cx, cy := firstX, firstY
	maxSteps := 4*c.count + 8
	for range maxSteps {
		nx, ny, nbx, nby, found := step(cx, cy, bx, by)
		if cx == sx && cy == sy && (!found || (nx == firstX && ny == firstY)) {
			break
		}
		pts = append(pts, utils.Point{X: float64(cx), Y: float64(cy)})
		if !found {
			break
		}
		cx, cy, bx, by = nx, ny, nbx, nby
	}
	return pts
}
