package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Name: ", "name:"},
		{"ＤＯＢ", "dob"},
		{"", ""},
		{"\tAddress\n", "address"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), "input %q", c.in)
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"both empty", "", "", 1.0},
		{"one empty", "abc", "", 0.0},
		{"whitespace only counts as empty", "   ", "x", 0.0},
		{"identical after folding", "Name", "  name ", 1.0},
		{"one substitution", "Nane", "Name", 0.75},
		{"disjoint", "abc", "xyz", 0.0},
		{"insertion", "DOB", "D.O.B", 0.6},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.want, Similarity(c.a, c.b), 1e-9)
		})
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance("Same", "same"))
	assert.Equal(t, 3, Distance("kitten", "sitting"))
	assert.Equal(t, 4, Distance("", "four"))
	assert.Equal(t, 1, Distance("café", "cafe"))
}
