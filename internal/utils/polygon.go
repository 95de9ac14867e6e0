package utils

import "math"

// SimplifyPolygon reduces the number of points in an open polyline using the
// Douglas–Peucker algorithm with the given tolerance epsilon. Endpoints are kept.
func SimplifyPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	keep := make([]bool, len(pts))
	dpSimplify(pts, 0, len(pts)-1, epsilon, keep)
	keep[0] = true
	keep[len(pts)-1] = true
	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// SimplifyClosedPolygon simplifies a closed contour. The ring is split at the point
// farthest from the first vertex and both halves are simplified independently.
func SimplifyClosedPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	far := 0
	best := -1.0
	for i, p := range pts {
		if d := Distance(pts[0], p); d > best {
			best = d
			far = i
		}
	}
	if far == 0 {
		return []Point{pts[0]}
	}
	ring := append(append([]Point(nil), pts...), pts[0])
	first := SimplifyPolygon(ring[:far+1], epsilon)
	second := SimplifyPolygon(ring[far:], epsilon)
	out := make([]Point, 0, len(first)+len(second))
	out = append(out, first...)
	// second starts at the split point and ends at the repeated first vertex
	if len(second) > 2 {
		out = append(out, second[1:len(second)-1]...)
	}
	return out
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return Distance(p, a)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	return num / math.Hypot(vx, vy)
}

// PolygonArea returns the absolute enclosed area of a closed polygon (shoelace formula).
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the length of the closed polygon outline.
func Perimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	total := 0.0
	for i := range pts {
		total += Distance(pts[i], pts[(i+1)%len(pts)])
	}
	return total
}
