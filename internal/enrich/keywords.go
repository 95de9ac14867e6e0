package enrich

import (
	"strings"

	"github.com/MeKo-Tech/formscan/internal/layout"
)

// Rule assigns Label when any keyword occurs in the form text.
type Rule struct {
	Label    string   `mapstructure:"label" yaml:"label" json:"label"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords" json:"keywords"`
}

// KeywordRules are evaluated in order; the first matching rule wins.
type KeywordRules []Rule

// Match returns the label of the first rule with a keyword present in a section name,
// field key or field value. Matching ignores case.
func (r KeywordRules) Match(sections []*layout.Section) string {
	if len(r) == 0 {
		return ""
	}
	var corpus strings.Builder
	for _, s := range sections {
		corpus.WriteString(strings.ToLower(s.Name))
		corpus.WriteByte('\n')
		for _, f := range s.Fields {
			corpus.WriteString(strings.ToLower(f.Key))
			corpus.WriteByte('\n')
			corpus.WriteString(strings.ToLower(f.Value))
			corpus.WriteByte('\n')
		}
	}
	text := corpus.String()
	for _, rule := range r {
		for _, kw := range rule.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
				return rule.Label
			}
		}
	}
	return ""
}

// KeywordClassifier classifies documents with keyword rules.
type KeywordClassifier struct {
	Rules KeywordRules
}

// Classify implements Classifier.
func (k KeywordClassifier) Classify(sections []*layout.Section) string { return k.Rules.Match(sections) }

// KeywordNamer names documents with keyword rules.
type KeywordNamer struct {
	Rules KeywordRules
}

// Name implements Namer.
func (k KeywordNamer) Name(sections []*layout.Section) string { return k.Rules.Match(sections) }
