// Package layout turns a flat list of recognized text tokens into form sections made of
// key/value fields, using text geometry and optional visual cues from the page image.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/MeKo-Tech/formscan/internal/utils"
)

// Field values emitted for checkbox and unpaired text fields.
const (
	ValueSelected   = "selected"
	ValueUnselected = "unselected"
	ValueEmpty      = "empty"
)

// DefaultSectionName names the single section used when a page has no structure cues.
const DefaultSectionName = "Form Data"

// DefaultBoxSectionName names a box-derived section whose box has no caption.
const DefaultBoxSectionName = "Section"

// ErrMalformedToken is returned when a token cannot be placed on the page.
var ErrMalformedToken = errors.New("malformed token")

// Token is one recognized piece of text with its page polygon.
type Token struct {
	Text       string        `json:"text"`
	Polygon    []utils.Point `json:"polygon"`
	Confidence float64       `json:"confidence"`
}

// Bounds returns the axis-aligned bounds of the polygon.
func (t Token) Bounds() utils.Box { return utils.BoundingBox(t.Polygon) }

func (t Token) XMin() float64    { return t.Bounds().MinX }
func (t Token) YMin() float64    { return t.Bounds().MinY }
func (t Token) XMax() float64    { return t.Bounds().MaxX }
func (t Token) YMax() float64    { return t.Bounds().MaxY }
func (t Token) Width() float64   { return t.Bounds().Width() }
func (t Token) Height() float64  { return t.Bounds().Height() }
func (t Token) CenterX() float64 { return t.Bounds().Center().X }
func (t Token) CenterY() float64 { return t.Bounds().Center().Y }

// Trimmed returns the token text without surrounding whitespace.
func (t Token) Trimmed() string { return strings.TrimSpace(t.Text) }

// Validate checks that the token has a usable polygon and confidence.
func (t Token) Validate() error {
	if len(t.Polygon) < 4 {
		return fmt.Errorf("%w: %q has %d polygon points, need 4", ErrMalformedToken, t.Text, len(t.Polygon))
	}
	for _, p := range t.Polygon {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: %q has non-finite coordinates", ErrMalformedToken, t.Text)
		}
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return fmt.Errorf("%w: %q confidence %.3f outside [0,1]", ErrMalformedToken, t.Text, t.Confidence)
	}
	return nil
}

// ValidateTokens validates every token and reports the first failure with its index.
func ValidateTokens(tokens []Token) error {
	for i, t := range tokens {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("token %d: %w", i, err)
		}
	}
	return nil
}

// RectToken builds a token from an axis-aligned rectangle, corners clockwise from top-left.
func RectToken(text string, x1, y1, x2, y2, confidence float64) Token {
	return Token{Text: text, Polygon: utils.NewBox(x1, y1, x2, y2).Corners(), Confidence: confidence}
}

// VisualBox is a drawn rectangle that delimits a section.
type VisualBox struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name,omitempty"`
}

// YEnd returns the bottom edge of the box.
func (b VisualBox) YEnd() int { return b.Y + b.Height }

// Area returns the box area in pixels.
func (b VisualBox) Area() int { return b.Width * b.Height }

// Box converts to float page coordinates.
func (b VisualBox) Box() utils.Box {
	return utils.NewBox(float64(b.X), float64(b.Y), float64(b.X+b.Width), float64(b.Y+b.Height))
}

// CheckboxMark is a detected checkbox and whether it is filled.
type CheckboxMark struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Filled bool `json:"filled"`
}

// Center returns the integer centre of the mark.
func (c CheckboxMark) Center() utils.Point {
	return utils.Point{X: float64(c.X + c.Width/2), Y: float64(c.Y + c.Height/2)}
}

// Polygon returns the four corners clockwise from the top-left.
func (c CheckboxMark) Polygon() []utils.Point {
	return utils.NewBox(float64(c.X), float64(c.Y), float64(c.X+c.Width), float64(c.Y+c.Height)).Corners()
}

// FieldKind tags how a field was produced.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldCheckbox
)

func (k FieldKind) String() string {
	switch k {
	case FieldText:
		return "text"
	case FieldCheckbox:
		return "checkbox"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Field is one key/value pair extracted from a token.
type Field struct {
	Key     string        `json:"key"`
	Kind    FieldKind     `json:"kind"`
	Value   string        `json:"value"`
	Polygon []utils.Point `json:"polygon"`
}

// ReferenceY returns the Y of the first polygon point, or 0 without a polygon.
func (f Field) ReferenceY() float64 {
	if len(f.Polygon) == 0 {
		return 0
	}
	return f.Polygon[0].Y
}

// SectionOrigin records which cue produced a section.
type SectionOrigin int

const (
	OriginHeader SectionOrigin = iota
	OriginBox
	OriginDefault
)

func (o SectionOrigin) String() string {
	switch o {
	case OriginHeader:
		return "header"
	case OriginBox:
		return "box"
	case OriginDefault:
		return "default"
	default:
		return fmt.Sprintf("SectionOrigin(%d)", int(o))
	}
}

// Section is a named vertical band of the page and the fields assigned to it.
// The band is half-open: YStart <= y < YEnd.
type Section struct {
	Name   string
	Origin SectionOrigin
	YStart float64
	YEnd   float64
	Fields []Field
}

// Contains reports whether y falls inside the section band.
func (s *Section) Contains(y float64) bool {
	return s.YStart <= y && y < s.YEnd
}
