// Package enrich derives document metadata from the structured form.
package enrich

import (
	"regexp"
	"strings"
	"time"

	"github.com/MeKo-Tech/formscan/internal/layout"
)

// Year-first dates are tried first so "2024-03-05" is not read as "24-03-05".
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}`),
	regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
	regexp.MustCompile(`\d{1,2}\s+\w+\s+\d{4}`),
}

var dateKeywords = []string{"date", "dob", "d.o.b"}

// Namer names a document, e.g. "referral".
type Namer interface {
	Name(sections []*layout.Section) string
}

// Classifier assigns a document category.
type Classifier interface {
	Classify(sections []*layout.Section) string
}

// Metadata describes one processed document.
type Metadata struct {
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	Classification string   `json:"classification,omitempty" yaml:"classification,omitempty"`
	Date           *string  `json:"date" yaml:"date"`
	UploadDate     string   `json:"upload_date" yaml:"upload_date"`
	Source         string   `json:"source,omitempty" yaml:"source,omitempty"`
	TokenCount     int      `json:"token_count" yaml:"token_count"`
	MeanConfidence float64  `json:"mean_confidence" yaml:"mean_confidence"`
	Sections       []string `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// Enricher fills document metadata. Namer and Classifier are optional.
type Enricher struct {
	namer      Namer
	classifier Classifier
	now        func() time.Time
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithNamer sets the document namer.
func WithNamer(n Namer) Option { return func(e *Enricher) { e.namer = n } }

// WithClassifier sets the document classifier.
func WithClassifier(c Classifier) Option { return func(e *Enricher) { e.classifier = c } }

// WithClock overrides the clock used for upload dates.
func WithClock(now func() time.Time) Option { return func(e *Enricher) { e.now = now } }

// New creates an Enricher.
func New(opts ...Option) *Enricher {
	e := &Enricher{now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enrich computes metadata for the given tokens and sections.
func (e *Enricher) Enrich(tokens []layout.Token, sections []*layout.Section) Metadata {
	md := Metadata{
		Date:       ExtractDate(sections),
		UploadDate: e.now().UTC().Format(time.RFC3339),
		TokenCount: len(tokens),
	}
	if len(tokens) > 0 {
		sum := 0.0
		for _, t := range tokens {
			sum += t.Confidence
		}
		md.MeanConfidence = sum / float64(len(tokens))
	}
	for _, s := range sections {
		md.Sections = append(md.Sections, s.Name)
	}
	if e.namer != nil {
		md.Name = e.namer.Name(sections)
	}
	if e.classifier != nil {
		md.Classification = e.classifier.Classify(sections)
	}
	return md
}

// ExtractDate returns the first date found in a field whose key names a date, falling back
// to the first date-looking value anywhere in the form.
func ExtractDate(sections []*layout.Section) *string {
	for _, keyed := range []bool{true, false} {
		for _, s := range sections {
			for _, f := range s.Fields {
				if keyed && !isDateKey(f.Key) {
					continue
				}
				if d, ok := findDate(f.Value); ok {
					return &d
				}
			}
		}
	}
	return nil
}

func isDateKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range dateKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func findDate(value string) (string, bool) {
	for _, re := range datePatterns {
		if m := re.FindString(value); m != "" {
			return m, true
		}
	}
	return "", false
}
