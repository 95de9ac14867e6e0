package textsim

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSimilarity_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("similarity is symmetric", prop.ForAll(
		func(a, b string) bool {
			return Similarity(a, b) == Similarity(b, a)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("similarity of a string with itself is 1", prop.ForAll(
		func(a string) bool {
			return Similarity(a, a) == 1.0
		},
		gen.AnyString(),
	))

	properties.Property("similarity stays within [0,1]", prop.ForAll(
		func(a, b string) bool {
			s := Similarity(a, b)
			return s >= 0 && s <= 1
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
