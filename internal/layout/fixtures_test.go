package layout

import (
	"image"

	"github.com/MeKo-Tech/formscan/internal/utils"
)

func poly(x1, y1, x2, y2 float64) []utils.Point {
	return []utils.Point{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}}
}

func tok(text string, x1, y1, x2, y2 float64) Token {
	return Token{Text: text, Polygon: poly(x1, y1, x2, y2), Confidence: 0.9}
}

// sampleTokens is a two-section referral form: a details block and a consent question.
func sampleTokens() []Token {
	return []Token{
		tok("GP DETAILS", 10, 10, 150, 40),
		tok("Name:", 20, 60, 80, 80),
		tok("Jane Brown", 100, 60, 200, 80),
		tok("Address:", 20, 100, 100, 120),
		tok("123 Main St", 120, 100, 250, 120),
		tok("CONSENT", 10, 200, 120, 230),
		tok("Yes", 50, 260, 80, 280),
		tok("No", 120, 260, 150, 280),
	}
}

func sampleCheckboxes() []CheckboxMark {
	return []CheckboxMark{
		{X: 30, Y: 255, Width: 15, Height: 15, Filled: true},
		{X: 100, Y: 255, Width: 15, Height: 15, Filled: false},
	}
}

// fakeDetector returns canned cues and records what it was asked.
type fakeDetector struct {
	boxes      []VisualBox
	checkboxes []CheckboxMark
	bold       map[string]bool
	boldCalls  int
}

func (f *fakeDetector) DetectSectionBoxes(image.Image, []Token) []VisualBox { return f.boxes }

func (f *fakeDetector) DetectCheckboxes(image.Image, []Token) []CheckboxMark { return f.checkboxes }

func (f *fakeDetector) IsBold(t Token, _ image.Image) bool {
	f.boldCalls++
	return f.bold[t.Text]
}

func blankImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 400, 400))
}
