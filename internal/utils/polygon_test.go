package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyPolygon(t *testing.T) {
	tests := []struct {
		name           string
		points         []Point
		epsilon        float64
		expectedMinLen int
		expectedMaxLen int
	}{
		{
			name:           "empty polygon",
			points:         []Point{},
			epsilon:        1.0,
			expectedMinLen: 0,
			expectedMaxLen: 0,
		},
		{
			name:           "collinear points collapse to endpoints",
			points:         []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}},
			epsilon:        0.5,
			expectedMinLen: 2,
			expectedMaxLen: 2,
		},
		{
			name:           "zero epsilon keeps everything",
			points:         []Point{{0, 0}, {1, 1}, {2, 0}, {3, 1}},
			epsilon:        0,
			expectedMinLen: 4,
			expectedMaxLen: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimplifyPolygon(tt.points, tt.epsilon)
			assert.GreaterOrEqual(t, len(got), tt.expectedMinLen)
			assert.LessOrEqual(t, len(got), tt.expectedMaxLen)
		})
	}
}

func rectangleOutline(x0, y0, x1, y1 int) []Point {
	var pts []Point
	for x := x0; x < x1; x++ {
		pts = append(pts, Point{X: float64(x), Y: float64(y0)})
	}
	for y := y0; y < y1; y++ {
		pts = append(pts, Point{X: float64(x1), Y: float64(y)})
	}
	for x := x1; x > x0; x-- {
		pts = append(pts, Point{X: float64(x), Y: float64(y1)})
	}
	for y := y1; y > y0; y-- {
		pts = append(pts, Point{X: float64(x0), Y: float64(y)})
	}
	return pts
}

func TestSimplifyClosedPolygon_RectangleKeepsCorners(t *testing.T) {
	pts := rectangleOutline(10, 10, 110, 60)
	got := SimplifyClosedPolygon(pts, 0.02*Perimeter(pts))
	require.Len(t, got, 4)
	assert.Contains(t, got, Point{X: 10, Y: 10})
	assert.Contains(t, got, Point{X: 110, Y: 10})
	assert.Contains(t, got, Point{X: 110, Y: 60})
	assert.Contains(t, got, Point{X: 10, Y: 60})
}

func TestPolygonAreaAndPerimeter(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.InDelta(t, 100.0, PolygonArea(square), 1e-9)
	assert.InDelta(t, 40.0, Perimeter(square), 1e-9)

	// orientation does not change the magnitude
	reversed := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	assert.InDelta(t, 100.0, PolygonArea(reversed), 1e-9)

	assert.Zero(t, PolygonArea(square[:2]))
	assert.Zero(t, Perimeter(square[:1]))
}
