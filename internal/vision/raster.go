package vision

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// grayRaster is an 8-bit luminance copy of an image with its origin moved to (0,0).
type grayRaster struct {
	w, h int
	pix  []uint8
}

func newGrayRaster(img image.Image) *grayRaster {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	r := &grayRaster{w: b.Dx(), h: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy())}
	for y := range r.h {
		row := g.Pix[y*g.Stride:]
		for x := range r.w {
			r.pix[y*r.w+x] = row[x*4]
		}
	}
	return r
}

func (r *grayRaster) at(x, y int) uint8 { return r.pix[y*r.w+x] }

// binaryInverse marks pixels at or below t as foreground.
func binaryInverse(r *grayRaster, t uint8) []bool {
	mask := make([]bool, len(r.pix))
	for i, v := range r.pix {
		mask[i] = v <= t
	}
	return mask
}

// otsuThreshold returns the grey level that maximises between-class variance, with the
// dark class being values <= the threshold. ok is false for a uniform raster.
func otsuThreshold(pix []uint8) (uint8, bool) {
	if len(pix) == 0 {
		return 0, false
	}
	var histogram [256]int
	for _, v := range pix {
		histogram[v]++
	}
	distinct := 0
	for _, c := range histogram {
		if c > 0 {
			distinct++
		}
	}
	if distinct < 2 {
		return 0, false
	}

	total := float64(len(pix))
	sumAll := 0.0
	for i, c := range histogram {
		sumAll += float64(i) * float64(c)
	}

	var sumB, wB float64
	best := 0
	bestVar := -1.0
	for t := range 256 {
		wB += float64(histogram[t])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(histogram[t])
		meanB := sumB / wB
		meanF := (sumAll - sumB) / wF
		between := wB * wF * (meanB - meanF) * (meanB - meanF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return uint8(best), true
}

// edgeMap computes the Sobel gradient magnitude and keeps strong edges plus weak edges
// 8-connected to a strong one.
func edgeMap(r *grayRaster, low, high float64) []bool {
	n := r.w * r.h
	mag := make([]float64, n)
	for y := 1; y < r.h-1; y++ {
		for x := 1; x < r.w-1; x++ {
			p := func(dx, dy int) float64 { return float64(r.at(x+dx, y+dy)) }
			gx := -p(-1, -1) - 2*p(-1, 0) - p(-1, 1) + p(1, -1) + 2*p(1, 0) + p(1, 1)
			gy := -p(-1, -1) - 2*p(0, -1) - p(1, -1) + p(-1, 1) + 2*p(0, 1) + p(1, 1)
			mag[y*r.w+x] = math.Hypot(gx, gy)
		}
	}

	edges := make([]bool, n)
	stack := make([]int, 0, 256)
	for i, m := range mag {
		if m >= high && !edges[i] {
			edges[i] = true
			stack = append(stack, i)
			for len(stack) > 0 {
				ci := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := ci%r.w, ci/r.w
				for _, d := range neighbours8 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= r.w || ny >= r.h {
						continue
					}
					ni := ny*r.w + nx
					if !edges[ni] && mag[ni] >= low {
						edges[ni] = true
						stack = append(stack, ni)
					}
				}
			}
		}
	}
	return edges
}

// dilate applies binary dilation with a square kernel.
func dilate(mask []bool, w, h, kernel, iterations int) []bool {
	if kernel <= 1 || iterations <= 0 {
		return mask
	}
	half := kernel / 2
	cur := mask
	for range iterations {
		out := make([]bool, len(cur))
		for y := range h {
			for x := range w {
				if !cur[y*w+x] {
					continue
				}
				for ky := max(0, y-half); ky <= min(h-1, y+half); ky++ {
					for kx := max(0, x-half); kx <= min(w-1, x+half); kx++ {
						out[ky*w+kx] = true
					}
				}
			}
		}
		cur = out
	}
	return cur
}

// foregroundFraction returns the share of foreground pixels inside rect.
func foregroundFraction(mask []bool, w int, rect image.Rectangle) float64 {
	if rect.Empty() {
		return 0
	}
	count := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if mask[y*w+x] {
				count++
			}
		}
	}
	return float64(count) / float64(rect.Dx()*rect.Dy())
}
