package layout

import (
	"fmt"
	"image"
	"regexp"
	"strings"
)

// DefaultHeaderHeightMultiplier is how much taller than average a token must be to count
// as a header on height alone.
const DefaultHeaderHeightMultiplier = 1.3

// DefaultHeaderPatterns are matched against the uppercased token text, anchored at the
// start of the text.
var DefaultHeaderPatterns = []string{
	`SECTION\b`,
	`PART\s+[A-Z0-9]+`,
	`\d+\.\s+[A-Z]`,
	`.*\bDETAILS$`,
	`.*\bINFORMATION$`,
	`.*\bHISTORY$`,
	`CONSENT$`,
	`REASON FOR REFERRAL$`,
	`DECLARATION$`,
}

// BoldDetector judges whether a token is printed in bold.
type BoldDetector interface {
	IsBold(tok Token, img image.Image) bool
}

// HeaderConfig configures header identification.
type HeaderConfig struct {
	HeightMultiplier float64  `mapstructure:"height_multiplier" yaml:"height_multiplier" json:"height_multiplier"`
	Patterns         []string `mapstructure:"patterns" yaml:"patterns" json:"patterns"`
	UseBold          bool     `mapstructure:"use_bold" yaml:"use_bold" json:"use_bold"`
}

// DefaultHeaderConfig returns the default header rules.
func DefaultHeaderConfig() HeaderConfig {
	return HeaderConfig{
		HeightMultiplier: DefaultHeaderHeightMultiplier,
		Patterns:         append([]string(nil), DefaultHeaderPatterns...),
		UseBold:          true,
	}
}

// HeaderIdentifier decides which tokens are section titles.
type HeaderIdentifier struct {
	multiplier float64
	patterns   []*regexp.Regexp
	bold       BoldDetector
}

// NewHeaderIdentifier compiles the configured patterns. bold may be nil, which disables
// the boldness rule.
func NewHeaderIdentifier(cfg HeaderConfig, bold BoldDetector) (*HeaderIdentifier, error) {
	if cfg.HeightMultiplier <= 0 {
		cfg.HeightMultiplier = DefaultHeaderHeightMultiplier
	}
	h := &HeaderIdentifier{multiplier: cfg.HeightMultiplier}
	if cfg.UseBold {
		h.bold = bold
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("invalid header pattern %q: %w", p, err)
		}
		h.patterns = append(h.patterns, re)
	}
	return h, nil
}

// IsHeader applies the height, pattern and boldness rules in that order.
func (h *HeaderIdentifier) IsHeader(tok Token, avgHeight float64, img image.Image) bool {
	if tok.Height() > avgHeight*h.multiplier {
		return true
	}
	upper := strings.ToUpper(tok.Text)
	for _, re := range h.patterns {
		if re.MatchString(upper) {
			return true
		}
	}
	if img != nil && h.bold != nil {
		return h.bold.IsBold(tok, img)
	}
	return false
}

// Headers returns the header tokens in input order.
func (h *HeaderIdentifier) Headers(tokens []Token, avgHeight float64, img image.Image) []Token {
	var out []Token
	for _, t := range tokens {
		if h.IsHeader(t, avgHeight, img) {
			out = append(out, t)
		}
	}
	return out
}

// AverageHeight returns the mean token height, or 0 for no tokens.
func AverageHeight(tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range tokens {
		sum += t.Height()
	}
	return sum / float64(len(tokens))
}
