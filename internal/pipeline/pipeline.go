// Package pipeline runs the form reconstruction stages over one or many documents.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/MeKo-Tech/formscan/internal/enrich"
	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/schema"
	"github.com/MeKo-Tech/formscan/internal/structure"
	"github.com/MeKo-Tech/formscan/internal/tokens"
	"github.com/MeKo-Tech/formscan/internal/vision"
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	SchemaPath string
	Threshold  float64

	Layout       layout.Config
	Vision       vision.Config
	EnableVision bool
	Structure    structure.Config

	Recognizer       tokens.RecognizerOptions
	EnableRecognizer bool

	Classification enrich.KeywordRules
	Naming         enrich.KeywordRules

	Parallel ParallelConfig
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:    schema.DefaultThreshold,
		Layout:       layout.DefaultConfig(),
		Vision:       vision.DefaultConfig(),
		EnableVision: true,
		Structure:    structure.DefaultConfig(),
		Recognizer:   tokens.DefaultRecognizerOptions(),
		Parallel:     DefaultParallelConfig(),
	}
}

// ParallelConfig holds configuration for batch processing.
type ParallelConfig struct {
	MaxWorkers       int              // Number of concurrent documents (0 = runtime.NumCPU())
	ProgressCallback ProgressCallback // Optional progress reporting
}

// DefaultParallelConfig uses one worker per CPU.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: runtime.NumCPU()}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg        Config
	table      *schema.Table
	recognizer tokens.Recognizer
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// NewBuilderWithConfig starts from an explicit config.
func NewBuilderWithConfig(cfg Config) *Builder { return &Builder{cfg: cfg} }

// WithSchemaPath sets the schema table file.
func (b *Builder) WithSchemaPath(path string) *Builder {
	b.cfg.SchemaPath = path
	return b
}

// WithSchemaTable uses an in-memory table instead of a file.
func (b *Builder) WithSchemaTable(t *schema.Table) *Builder {
	b.table = t
	return b
}

// WithThreshold sets the fuzzy match threshold.
func (b *Builder) WithThreshold(th float64) *Builder {
	if th > 0 && th <= 1 {
		b.cfg.Threshold = th
	}
	return b
}

// WithHeaderHeightMultiplier sets the header height rule.
func (b *Builder) WithHeaderHeightMultiplier(m float64) *Builder {
	if m > 0 {
		b.cfg.Layout.Header.HeightMultiplier = m
	}
	return b
}

// WithCheckboxArea sets the accepted checkbox area range in pixels.
func (b *Builder) WithCheckboxArea(minArea, maxArea float64) *Builder {
	if minArea > 0 {
		b.cfg.Vision.CheckboxMinArea = minArea
	}
	if maxArea > 0 {
		b.cfg.Vision.CheckboxMaxArea = maxArea
	}
	return b
}

// WithVision enables or disables the image-based detectors.
func (b *Builder) WithVision(enabled bool) *Builder {
	b.cfg.EnableVision = enabled
	return b
}

// WithRecognizer enables the live recognizer for inputs that carry no tokens.
func (b *Builder) WithRecognizer(enabled bool, language string) *Builder {
	b.cfg.EnableRecognizer = enabled
	if language != "" {
		b.cfg.Recognizer.Language = language
	}
	return b
}

// WithRecognizerInstance injects a recognizer, mainly for tests.
func (b *Builder) WithRecognizerInstance(r tokens.Recognizer) *Builder {
	b.recognizer = r
	b.cfg.EnableRecognizer = r != nil
	return b
}

// WithClassificationRules sets the keyword rules used for the classification metadata.
func (b *Builder) WithClassificationRules(rules enrich.KeywordRules) *Builder {
	b.cfg.Classification = rules
	return b
}

// WithNamingRules sets the keyword rules used for the name metadata.
func (b *Builder) WithNamingRules(rules enrich.KeywordRules) *Builder {
	b.cfg.Naming = rules
	return b
}

// WithParallelWorkers sets the number of parallel workers for batch processing.
func (b *Builder) WithParallelWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Parallel.MaxWorkers = workers
	}
	return b
}

// WithProgressCallback sets the progress callback for batch processing.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that configuration looks sane.
func (b *Builder) Validate() error {
	if b.cfg.Threshold <= 0 || b.cfg.Threshold > 1 {
		return fmt.Errorf("threshold %.2f outside (0,1]", b.cfg.Threshold)
	}
	if b.cfg.Vision.CheckboxMinArea > b.cfg.Vision.CheckboxMaxArea {
		return errors.New("checkbox min area exceeds max area")
	}
	if b.cfg.Layout.Header.HeightMultiplier <= 0 {
		return errors.New("header height multiplier must be > 0")
	}
	return nil
}

// Build validates the config and constructs the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	table := b.table
	if table == nil {
		table = schema.LoadTableOrEmpty(b.cfg.SchemaPath)
	}
	mapper := schema.NewMapper(table, b.cfg.Threshold)

	var detector layout.VisualDetector
	if b.cfg.EnableVision {
		detector = vision.NewDetector(b.cfg.Vision)
	}
	analyzer, err := layout.NewAnalyzer(b.cfg.Layout, detector)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout analyzer: %w", err)
	}

	var opts []enrich.Option
	if len(b.cfg.Classification) > 0 {
		opts = append(opts, enrich.WithClassifier(enrich.KeywordClassifier{Rules: b.cfg.Classification}))
	}
	if len(b.cfg.Naming) > 0 {
		opts = append(opts, enrich.WithNamer(enrich.KeywordNamer{Rules: b.cfg.Naming}))
	}

	rec := b.recognizer
	if rec == nil && b.cfg.EnableRecognizer {
		rec, err = tokens.NewRecognizer(b.cfg.Recognizer)
		if err != nil {
			return nil, fmt.Errorf("failed to create recognizer: %w", err)
		}
	}

	p := &Pipeline{
		cfg:        b.cfg,
		Mapper:     mapper,
		Analyzer:   analyzer,
		Structurer: structure.NewBuilder(mapper, b.cfg.Structure),
		Enricher:   enrich.New(opts...),
		Recognizer: rec,
	}
	p.stages = []stage{
		tokenExtractor{rec: rec},
		layoutAnalyzer{analyzer: analyzer},
		structureBuilder{builder: p.Structurer},
		metadataEnricher{enricher: p.Enricher},
	}

	slog.Debug("Pipeline built",
		"schema_entries", table.Len(),
		"threshold", mapper.Threshold(),
		"vision", b.cfg.EnableVision,
		"recognizer", rec != nil)
	return p, nil
}

// Pipeline wires together the schema mapper, analyzer, structure builder and enricher.
// It holds no per-document state and is safe for concurrent use.
type Pipeline struct {
	cfg        Config
	Mapper     *schema.Mapper
	Analyzer   *layout.Analyzer
	Structurer *structure.Builder
	Enricher   *enrich.Enricher
	Recognizer tokens.Recognizer

	stages []stage
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config { return p.cfg }

// Close releases the recognizer, if any.
func (p *Pipeline) Close() error {
	if p == nil || p.Recognizer == nil {
		return nil
	}
	return p.Recognizer.Close()
}
