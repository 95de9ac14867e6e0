package structure

import (
	"log/slog"
	"math"

	"github.com/MeKo-Tech/formscan/internal/layout"
)

// DefaultSameRowYTolerance is the vertical distance within which checkboxes share a row.
const DefaultSameRowYTolerance = 10.0

// MinChoiceGroupSize is the smallest cluster emitted as a multiple-choice answer.
const MinChoiceGroupSize = 2

// KeyMapper maps raw labels onto canonical keys.
type KeyMapper interface {
	Map(raw string) string
}

// Config configures the builder.
type Config struct {
	SameRowYTolerance float64 `mapstructure:"same_row_y_tolerance" yaml:"same_row_y_tolerance" json:"same_row_y_tolerance"`
}

// DefaultConfig returns the default builder configuration.
func DefaultConfig() Config {
	return Config{SameRowYTolerance: DefaultSameRowYTolerance}
}

// Builder converts sections to a Document. It holds no per-document state.
type Builder struct {
	mapper    KeyMapper
	tolerance float64
}

type identityMapper struct{}

func (identityMapper) Map(raw string) string { return raw }

// NewBuilder creates a builder. A nil mapper leaves keys untouched.
func NewBuilder(mapper KeyMapper, cfg Config) *Builder {
	if mapper == nil {
		mapper = identityMapper{}
	}
	if cfg.SameRowYTolerance <= 0 {
		cfg.SameRowYTolerance = DefaultSameRowYTolerance
	}
	return &Builder{mapper: mapper, tolerance: cfg.SameRowYTolerance}
}

// Build emits one output section per input section, in order.
func (b *Builder) Build(sections []*layout.Section) Document {
	doc := Document{Sections: make([]SectionOutput, 0, len(sections))}
	if len(sections) == 0 {
		slog.Warn("No sections to build structure from")
		return doc
	}
	for _, s := range sections {
		doc.Sections = append(doc.Sections, b.BuildSection(s))
	}
	slog.Info("Built structured output", "sections", len(doc.Sections), "fields", doc.FieldCount())
	return doc
}

// BuildSection emits fields in order, replacing each checkbox row cluster by a single
// multiple-choice field placed where its first member was.
func (b *Builder) BuildSection(s *layout.Section) SectionOutput {
	out := SectionOutput{Name: b.mapper.Map(s.Name), Fields: make([]QA, 0, len(s.Fields))}

	groups := MultipleChoiceGroups(s.Fields, b.tolerance)
	groupOf := make(map[int]int, len(s.Fields))
	for gi, g := range groups {
		for _, idx := range g.Indices {
			groupOf[idx] = gi
		}
	}

	for i, f := range s.Fields {
		gi, grouped := groupOf[i]
		if !grouped {
			out.Fields = append(out.Fields, QA{Question: b.mapper.Map(f.Key), Answer: TextAnswer(f.Value)})
			continue
		}
		g := groups[gi]
		if g.Indices[0] != i {
			continue
		}
		choices := make([]Choice, 0, len(g.Indices))
		for _, idx := range g.Indices {
			member := s.Fields[idx]
			choices = append(choices, Choice{Option: b.mapper.Map(member.Key), Value: member.Value})
		}
		out.Fields = append(out.Fields, QA{Question: b.mapper.Map(g.Label), Answer: ChoiceAnswer(choices)})
	}
	return out
}

// Group is a cluster of row-aligned checkbox fields, by index into the section fields.
type Group struct {
	Label   string
	Indices []int
}

// MultipleChoiceGroups clusters consecutive checkbox fields whose reference Y lies within
// tolerance of the cluster's first member. Only clusters with at least two members are
// returned. Each group is labelled by the closest preceding non-checkbox field, or by a
// synthetic name derived from its row.
func MultipleChoiceGroups(fields []layout.Field, tolerance float64) []Group {
	var checkboxes []int
	for i, f := range fields {
		if f.Kind == layout.FieldCheckbox {
			checkboxes = append(checkboxes, i)
		}
	}
	if len(checkboxes) < MinChoiceGroupSize {
		return nil
	}

	var groups []Group
	flush := func(cluster []int) {
		if len(cluster) >= MinChoiceGroupSize {
			groups = append(groups, Group{Label: groupLabel(fields, cluster[0]), Indices: cluster})
		}
	}

	var cluster []int
	var rowY float64
	for _, idx := range checkboxes {
		y := fields[idx].ReferenceY()
		if len(cluster) > 0 && math.Abs(y-rowY) < tolerance {
			cluster = append(cluster, idx)
			continue
		}
		flush(cluster)
		cluster = []int{idx}
		rowY = y
	}
	flush(cluster)
	return groups
}

func groupLabel(fields []layout.Field, first int) string {
	for i := first - 1; i >= 0; i-- {
		if fields[i].Kind != layout.FieldCheckbox {
			return fields[i].Key
		}
	}
	return "choice_group_" + layout.FormatY(fields[first].ReferenceY())
}
