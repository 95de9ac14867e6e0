package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderIdentifier_Rules(t *testing.T) {
	bold := &fakeDetector{bold: map[string]bool{"Heavy words": true}}
	h, err := NewHeaderIdentifier(DefaultHeaderConfig(), bold)
	require.NoError(t, err)

	cases := []struct {
		name string
		tok  Token
		img  bool
		want bool
	}{
		{"taller than average", tok("anything", 0, 0, 50, 30), false, true},
		{"exactly at threshold is not tall", tok("anything", 0, 0, 50, 26), false, false},
		{"section prefix", tok("Section 2", 0, 0, 50, 20), false, true},
		{"part prefix", tok("Part B", 0, 0, 50, 20), false, true},
		{"numbered heading", tok("3. Medical history", 0, 0, 50, 20), false, true},
		{"details suffix", tok("gp details", 0, 0, 50, 20), false, true},
		{"fixed phrase", tok("Reason for referral", 0, 0, 50, 20), false, true},
		{"pattern must match from start", tok("No consent", 0, 0, 50, 20), false, false},
		{"plain label", tok("Name:", 0, 0, 50, 20), false, false},
		{"bold with image", tok("Heavy words", 0, 0, 50, 20), true, true},
		{"bold ignored without image", tok("Heavy words", 0, 0, 50, 20), false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			img := blankImage()
			if !c.img {
				img = nil
			}
			assert.Equal(t, c.want, h.IsHeader(c.tok, 20, img))
		})
	}
}

func TestHeaderIdentifier_ShortCircuits(t *testing.T) {
	bold := &fakeDetector{bold: map[string]bool{}}
	h, err := NewHeaderIdentifier(DefaultHeaderConfig(), bold)
	require.NoError(t, err)

	assert.True(t, h.IsHeader(tok("CONSENT", 0, 0, 50, 20), 20, blankImage()))
	assert.Equal(t, 0, bold.boldCalls)

	assert.False(t, h.IsHeader(tok("free text", 0, 0, 50, 20), 20, blankImage()))
	assert.Equal(t, 1, bold.boldCalls)
}

func TestHeaderIdentifier_Config(t *testing.T) {
	_, err := NewHeaderIdentifier(HeaderConfig{Patterns: []string{"("}}, nil)
	require.Error(t, err)

	bold := &fakeDetector{bold: map[string]bool{"x": true}}
	h, err := NewHeaderIdentifier(HeaderConfig{Patterns: []string{"APPENDIX"}, UseBold: false}, bold)
	require.NoError(t, err)
	assert.True(t, h.IsHeader(tok("appendix a", 0, 0, 10, 10), 10, nil))
	assert.False(t, h.IsHeader(tok("x", 0, 0, 10, 10), 10, blankImage()))
	// zero multiplier falls back to the default
	assert.True(t, h.IsHeader(tok("y", 0, 0, 10, 14), 10, nil))
}

func TestAverageHeight(t *testing.T) {
	assert.Zero(t, AverageHeight(nil))
	assert.InDelta(t, 22.5, AverageHeight(sampleTokens()), 1e-9)
}

func TestHeaders_SampleForm(t *testing.T) {
	h, err := NewHeaderIdentifier(DefaultHeaderConfig(), nil)
	require.NoError(t, err)
	tokens := sampleTokens()
	headers := h.Headers(tokens, AverageHeight(tokens), nil)
	require.Len(t, headers, 2)
	assert.Equal(t, "GP DETAILS", headers[0].Text)
	assert.Equal(t, "CONSENT", headers[1].Text)
}
