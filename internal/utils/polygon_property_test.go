package utils

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genPoint() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
	).Map(func(vals []interface{}) Point {
		return Point{X: vals[0].(float64), Y: vals[1].(float64)}
	})
}

func TestSimplifyPolygon_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("simplified polyline never grows", prop.ForAll(
		func(points []Point, epsilon float64) bool {
			return len(SimplifyPolygon(points, epsilon)) <= len(points)
		},
		gen.SliceOfN(12, genPoint()),
		gen.Float64Range(0.1, 10.0),
	))

	properties.Property("simplified ring never grows and keeps the first vertex", prop.ForAll(
		func(points []Point, epsilon float64) bool {
			got := SimplifyClosedPolygon(points, epsilon)
			return len(got) <= len(points) && len(got) > 0 && got[0] == points[0]
		},
		gen.SliceOfN(12, genPoint()),
		gen.Float64Range(0.1, 10.0),
	))

	properties.Property("box area is never negative", prop.ForAll(
		func(a, b Point) bool {
			return NewBox(a.X, a.Y, b.X, b.Y).Area() >= 0
		},
		genPoint(),
		genPoint(),
	))

	properties.TestingRun(t)
}
