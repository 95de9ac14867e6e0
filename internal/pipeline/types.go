package pipeline

import (
	"image"

	"github.com/MeKo-Tech/formscan/internal/enrich"
	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/structure"
)

// Input is one document to process. Tokens may be empty when a recognizer is configured and
// Image is set. Image may be nil, which disables the visual cues.
type Input struct {
	Source string
	Tokens []layout.Token
	Image  image.Image
}

// Result is the output envelope for one document.
type Result struct {
	Metadata enrich.Metadata    `json:"metadata" yaml:"metadata"`
	Form     structure.Document `json:"form" yaml:"form"`
	Errors   []string           `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// HasErrors reports whether any stage failed.
func (r *Result) HasErrors() bool { return r != nil && len(r.Errors) > 0 }

// document carries per-document state between stages.
type document struct {
	input    Input
	tokens   []layout.Token
	analysis *layout.Analysis
	form     structure.Document
	metadata enrich.Metadata
	errors   []string
}

func (d *document) sections() []*layout.Section {
	if d.analysis == nil {
		return nil
	}
	return d.analysis.Sections
}
