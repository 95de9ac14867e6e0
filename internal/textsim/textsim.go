// Package textsim scores how alike two short strings are after normalization.
package textsim

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds compatibility characters, trims surrounding whitespace and lowercases s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// Similarity returns a score in [0,1] where 1 means the normalized inputs are identical.
// It is symmetric in its arguments.
func Similarity(a, b string) float64 {
	ra := []rune(Normalize(a))
	rb := []rune(Normalize(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	longest := max(len(ra), len(rb))
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

// Distance returns the unit-cost edit distance between the normalized inputs.
func Distance(a, b string) int {
	return levenshtein([]rune(Normalize(a)), []rune(Normalize(b)))
}

func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
