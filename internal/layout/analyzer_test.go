package layout

import (
	"testing"

	"github.com/MeKo-Tech/formscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_WithVisualCues(t *testing.T) {
	det := &fakeDetector{checkboxes: sampleCheckboxes()}
	a, err := NewAnalyzer(DefaultConfig(), det)
	require.NoError(t, err)

	res, err := a.Analyze(sampleTokens(), blankImage())
	require.NoError(t, err)
	require.Len(t, res.Sections, 2)
	assert.Len(t, res.Checkboxes, 2)
	assert.Equal(t, ValueSelected, res.Sections[1].Fields[0].Value)
	assert.InDelta(t, 22.5, res.AvgHeight, 1e-9)
}

func TestAnalyzer_WithoutImageSkipsDetectors(t *testing.T) {
	det := &fakeDetector{
		checkboxes: sampleCheckboxes(),
		boxes:      []VisualBox{{X: 0, Y: 0, Width: 300, Height: 300, Name: "Box"}},
		bold:       map[string]bool{"Name:": true},
	}
	a, err := NewAnalyzer(DefaultConfig(), det)
	require.NoError(t, err)

	res, err := a.Analyze(sampleTokens(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Boxes)
	assert.Empty(t, res.Checkboxes)
	assert.Zero(t, det.boldCalls)
	require.Len(t, res.Sections, 2)
	assert.Equal(t, ValueEmpty, res.Sections[1].Fields[0].Value)
}

func TestAnalyzer_BoxSectionsWhenNoHeaders(t *testing.T) {
	det := &fakeDetector{boxes: []VisualBox{
		{X: 0, Y: 50, Width: 300, Height: 100, Name: "Personal"},
		{X: 0, Y: 250, Width: 300, Height: 60},
	}}
	a, err := NewAnalyzer(DefaultConfig(), det)
	require.NoError(t, err)

	tokens := []Token{
		tok("Name:", 20, 60, 80, 80),
		tok("Jane", 100, 60, 150, 80),
		tok("Yes", 50, 260, 80, 280),
		tok("Footer", 50, 500, 80, 520),
	}
	res, err := a.Analyze(tokens, blankImage())
	require.NoError(t, err)
	require.Len(t, res.Sections, 2)
	assert.Equal(t, "Personal", res.Sections[0].Name)
	assert.Len(t, res.Sections[0].Fields, 2)
	assert.Equal(t, DefaultBoxSectionName, res.Sections[1].Name)
	assert.Len(t, res.Sections[1].Fields, 2, "tokens below every box go to the last section")
}

func TestAnalyzer_EmptyAndMalformed(t *testing.T) {
	a, err := NewAnalyzer(DefaultConfig(), nil)
	require.NoError(t, err)

	res, err := a.Analyze(nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, DefaultSectionName, res.Sections[0].Name)

	_, err = a.Analyze([]Token{{Text: "bad", Polygon: []utils.Point{{X: 1, Y: 1}}}}, nil)
	require.ErrorIs(t, err, ErrMalformedToken)

	_, err = a.Analyze([]Token{{Text: "conf", Polygon: poly(0, 0, 1, 1), Confidence: 1.5}}, nil)
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenGeometry(t *testing.T) {
	tk := tok("x", 10, 20, 50, 30)
	assert.InDelta(t, 40.0, tk.Width(), 1e-9)
	assert.InDelta(t, 10.0, tk.Height(), 1e-9)
	assert.InDelta(t, 30.0, tk.CenterX(), 1e-9)
	assert.InDelta(t, 25.0, tk.CenterY(), 1e-9)

	cb := CheckboxMark{X: 30, Y: 255, Width: 15, Height: 15}
	assert.Equal(t, utils.Point{X: 37, Y: 262}, cb.Center())
	assert.Equal(t, "checkbox", FieldCheckbox.String())
	assert.Equal(t, "box", OriginBox.String())
}
