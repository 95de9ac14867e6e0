package layout

import (
	"fmt"
	"image"
	"log/slog"
)

// VisualDetector supplies the image-based cues. Implementations must not modify img.
type VisualDetector interface {
	BoldDetector
	DetectSectionBoxes(img image.Image, tokens []Token) []VisualBox
	DetectCheckboxes(img image.Image, tokens []Token) []CheckboxMark
}

// Config combines the header and grouping rules.
type Config struct {
	Header   HeaderConfig   `mapstructure:"header" yaml:"header" json:"header"`
	Grouping GroupingConfig `mapstructure:"grouping" yaml:"grouping" json:"grouping"`
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() Config {
	return Config{Header: DefaultHeaderConfig(), Grouping: DefaultGroupingConfig()}
}

// Analyzer runs header identification, visual detection and grouping for one page.
type Analyzer struct {
	headers  *HeaderIdentifier
	grouper  *Grouper
	detector VisualDetector
}

// NewAnalyzer creates an analyzer. detector may be nil, which limits analysis to text
// geometry and header patterns.
func NewAnalyzer(cfg Config, detector VisualDetector) (*Analyzer, error) {
	var bold BoldDetector
	if detector != nil {
		bold = detector
	}
	h, err := NewHeaderIdentifier(cfg.Header, bold)
	if err != nil {
		return nil, err
	}
	return &Analyzer{headers: h, grouper: NewGrouper(cfg.Grouping), detector: detector}, nil
}

// Analysis is the outcome of analysing one page, including the intermediate cues.
type Analysis struct {
	Sections   []*Section
	Headers    []Token
	Boxes      []VisualBox
	Checkboxes []CheckboxMark
	AvgHeight  float64
}

// Analyze validates tokens and groups them into sections. img may be nil.
func (a *Analyzer) Analyze(tokens []Token, img image.Image) (*Analysis, error) {
	if err := ValidateTokens(tokens); err != nil {
		return nil, fmt.Errorf("layout analysis: %w", err)
	}
	if len(tokens) == 0 {
		slog.Warn("No tokens to analyze")
		return &Analysis{Sections: CreateSections(nil, nil)}, nil
	}

	res := &Analysis{AvgHeight: AverageHeight(tokens)}
	visual := img != nil && a.detector != nil

	if visual {
		res.Boxes = a.detector.DetectSectionBoxes(img, tokens)
	}
	res.Headers = a.headers.Headers(tokens, res.AvgHeight, img)
	if visual {
		res.Checkboxes = a.detector.DetectCheckboxes(img, tokens)
	}
	res.Sections = a.grouper.Group(tokens, res.Headers, res.Boxes, res.Checkboxes)

	fields := 0
	for _, s := range res.Sections {
		fields += len(s.Fields)
	}
	slog.Info("Analyzed form layout",
		"tokens", len(tokens),
		"headers", len(res.Headers),
		"boxes", len(res.Boxes),
		"checkboxes", len(res.Checkboxes),
		"sections", len(res.Sections),
		"fields", fields)
	return res, nil
}
