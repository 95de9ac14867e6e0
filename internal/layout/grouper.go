package layout

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/MeKo-Tech/formscan/internal/utils"
)

// DefaultMaxCheckboxDistance bounds how far a checkbox centre may be from the token it labels.
const DefaultMaxCheckboxDistance = 50.0

// DefaultLabelSuffixes mark a token as a label when its trimmed text ends with one of them.
var DefaultLabelSuffixes = []string{
	":", "?",
	"Name", "Date", "Address", "Number", "Phone", "Email", "DOB", "Postcode", "Signature",
}

// GroupingConfig configures section grouping and field pairing.
type GroupingConfig struct {
	MaxCheckboxDistance float64  `mapstructure:"max_checkbox_distance" yaml:"max_checkbox_distance" json:"max_checkbox_distance"`
	LabelSuffixes       []string `mapstructure:"label_suffixes" yaml:"label_suffixes" json:"label_suffixes"`
	// SameLineRatio is the share of the label height within which a value's vertical
	// centre must lie.
	SameLineRatio float64 `mapstructure:"same_line_ratio" yaml:"same_line_ratio" json:"same_line_ratio"`
}

// DefaultGroupingConfig returns the default grouping rules.
func DefaultGroupingConfig() GroupingConfig {
	return GroupingConfig{
		MaxCheckboxDistance: DefaultMaxCheckboxDistance,
		LabelSuffixes:       append([]string(nil), DefaultLabelSuffixes...),
		SameLineRatio:       0.5,
	}
}

// Grouper builds sections and fields from classified tokens. It keeps no state between
// calls.
type Grouper struct {
	cfg GroupingConfig
}

// NewGrouper creates a grouper, filling unset values from the defaults.
func NewGrouper(cfg GroupingConfig) *Grouper {
	def := DefaultGroupingConfig()
	if cfg.MaxCheckboxDistance <= 0 {
		cfg.MaxCheckboxDistance = def.MaxCheckboxDistance
	}
	if cfg.LabelSuffixes == nil {
		cfg.LabelSuffixes = def.LabelSuffixes
	}
	if cfg.SameLineRatio <= 0 {
		cfg.SameLineRatio = def.SameLineRatio
	}
	return &Grouper{cfg: cfg}
}

// Group creates the section list and assigns every non-header token to exactly one
// section as a field. Header tokens are matched by identity of their position in tokens,
// so headers must be taken from the same slice.
func (g *Grouper) Group(tokens []Token, headers []Token, boxes []VisualBox, checkboxes []CheckboxMark) []*Section {
	sorted := append([]Token(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].YMin() < sorted[j].YMin() })

	sections := CreateSections(headers, boxes)

	isHeader := make(map[string]int, len(headers))
	for _, h := range headers {
		isHeader[tokenIdentity(h)]++
	}

	for _, t := range sorted {
		if id := tokenIdentity(t); isHeader[id] > 0 {
			isHeader[id]--
			continue
		}
		target := AssignSection(t, sections)
		target.Fields = append(target.Fields, g.BuildField(t, checkboxes, sorted))
	}
	return sections
}

// tokenIdentity keys a token by its text and geometry. Two tokens with identical text and
// polygon are interchangeable for grouping.
func tokenIdentity(t Token) string {
	var b strings.Builder
	b.WriteString(t.Text)
	for _, p := range t.Polygon {
		b.WriteString("|")
		b.WriteString(formatCoord(p.X))
		b.WriteString(",")
		b.WriteString(formatCoord(p.Y))
	}
	return b.String()
}

// CreateSections builds sections from headers if any, else from visual boxes, else a
// single page-wide default section.
func CreateSections(headers []Token, boxes []VisualBox) []*Section {
	if len(headers) > 0 {
		sorted := append([]Token(nil), headers...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].YMin() < sorted[j].YMin() })
		sections := make([]*Section, 0, len(sorted))
		for i, h := range sorted {
			yEnd := math.Inf(1)
			if i+1 < len(sorted) {
				yEnd = sorted[i+1].YMin()
			}
			sections = append(sections, &Section{
				Name:   h.Trimmed(),
				Origin: OriginHeader,
				YStart: h.YMax(),
				YEnd:   yEnd,
			})
		}
		slog.Debug("Using header-based sections", "count", len(sections))
		return sections
	}

	if len(boxes) > 0 {
		sections := make([]*Section, 0, len(boxes))
		for _, b := range boxes {
			name := b.Name
			if name == "" {
				name = DefaultBoxSectionName
			}
			sections = append(sections, &Section{
				Name:   name,
				Origin: OriginBox,
				YStart: float64(b.Y),
				YEnd:   float64(b.YEnd()),
			})
		}
		slog.Debug("Using visual section boxes", "count", len(sections))
		return sections
	}

	return []*Section{{Name: DefaultSectionName, Origin: OriginDefault, YStart: 0, YEnd: math.Inf(1)}}
}

// AssignSection returns the first section whose band contains the token top, or the last
// section when none does. sections must not be empty.
func AssignSection(t Token, sections []*Section) *Section {
	y := t.YMin()
	for _, s := range sections {
		if s.Contains(y) {
			return s
		}
	}
	return sections[len(sections)-1]
}

// BuildField turns a token into a checkbox field, a label with its value, or a bare text
// field. all is the full token list searched for values.
func (g *Grouper) BuildField(t Token, checkboxes []CheckboxMark, all []Token) Field {
	text := t.Trimmed()
	if cb, ok := g.FindCheckboxLeftOf(t, checkboxes); ok {
		value := ValueUnselected
		if cb.Filled {
			value = ValueSelected
		}
		return Field{Key: text, Kind: FieldCheckbox, Value: value, Polygon: t.Polygon}
	}

	value := ValueEmpty
	if g.IsLabel(text) {
		if v, ok := g.FindValueForLabel(t, all); ok && v != "" {
			value = v
		}
	}
	return Field{Key: text, Kind: FieldText, Value: value, Polygon: t.Polygon}
}

// FindCheckboxLeftOf returns the nearest checkbox whose centre lies left of the token's left
// edge, measured from (left edge, vertical centre), within the distance cutoff.
func (g *Grouper) FindCheckboxLeftOf(t Token, checkboxes []CheckboxMark) (CheckboxMark, bool) {
	anchor := utils.Point{X: t.XMin(), Y: t.CenterY()}
	best := -1
	bestDist := math.Inf(1)
	for i, cb := range checkboxes {
		c := cb.Center()
		if c.X >= anchor.X {
			continue
		}
		d := utils.Distance(anchor, c)
		if d < bestDist && d < g.cfg.MaxCheckboxDistance {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return CheckboxMark{}, false
	}
	return checkboxes[best], true
}

// IsLabel reports whether trimmed text ends with a label suffix.
func (g *Grouper) IsLabel(text string) bool {
	for _, s := range g.cfg.LabelSuffixes {
		if strings.HasSuffix(text, s) || strings.HasSuffix(text, s+" ") {
			return true
		}
	}
	return false
}

// FindValueForLabel returns the trimmed text of the closest token to the right of the label
// on the same line.
func (g *Grouper) FindValueForLabel(label Token, all []Token) (string, bool) {
	tolerance := label.Height() * g.cfg.SameLineRatio
	labelID := tokenIdentity(label)
	best := -1
	bestGap := math.Inf(1)
	for i, t := range all {
		if tokenIdentity(t) == labelID {
			continue
		}
		if math.Abs(t.CenterY()-label.CenterY()) >= tolerance {
			continue
		}
		if t.XMin() <= label.XMax() {
			continue
		}
		if gap := t.XMin() - label.XMax(); gap < bestGap {
			bestGap = gap
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return all[best].Trimmed(), true
}
