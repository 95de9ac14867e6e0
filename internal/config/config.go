package config

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/formscan/internal/enrich"
	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/pipeline"
	"github.com/MeKo-Tech/formscan/internal/schema"
	"github.com/MeKo-Tech/formscan/internal/structure"
	"github.com/MeKo-Tech/formscan/internal/vision"
)

// Known values for enumerated settings.
var (
	ValidLogLevels     = []string{"debug", "info", "warn", "error"}
	ValidOutputFormats = []string{structure.FormatJSON, structure.FormatYAML, structure.FormatText}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	lc := layout.DefaultConfig()
	vc := vision.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Schema: SchemaConfig{
			Threshold: schema.DefaultThreshold,
		},
		Layout: LayoutConfig{
			HeaderHeightMultiplier: lc.Header.HeightMultiplier,
			HeaderPatterns:         lc.Header.Patterns,
			UseBold:                lc.Header.UseBold,
			MaxCheckboxDistance:    lc.Grouping.MaxCheckboxDistance,
			LabelSuffixes:          lc.Grouping.LabelSuffixes,
			SameLineRatio:          lc.Grouping.SameLineRatio,
			SameRowYTolerance:      structure.DefaultSameRowYTolerance,
		},
		Vision: VisionConfig{
			Enabled:                 true,
			CheckboxMinArea:         vc.CheckboxMinArea,
			CheckboxMaxArea:         vc.CheckboxMaxArea,
			CheckboxFillThreshold:   vc.CheckboxFillThreshold,
			MinBoxAreaRatio:         vc.MinBoxAreaRatio,
			MaxBoxAreaRatio:         vc.MaxBoxAreaRatio,
			OverlapThreshold:        vc.OverlapThreshold,
			BoldInkDensityThreshold: vc.BoldInkDensityThreshold,
		},
		Recognizer: RecognizerConfig{
			Enabled:       false,
			Language:      "eng",
			MinConfidence: 0.0,
		},
		Output: OutputConfig{
			Format: structure.FormatJSON,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 5,
				Burst:             10,
				IdleTimeoutSec:    600,
			},
		},
		Batch: BatchConfig{
			Workers:         runtime.NumCPU(),
			ImageExtensions: []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".pdf"},
			ContinueOnError: true,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if !slices.Contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(ValidLogLevels, ", "))
	}
	if c.Output.Format != "" && !slices.Contains(ValidOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(ValidOutputFormats, ", "))
	}

	for name, v := range map[string]float64{
		"schema.threshold":                  c.Schema.Threshold,
		"layout.same_line_ratio":            c.Layout.SameLineRatio,
		"vision.checkbox_fill_threshold":    c.Vision.CheckboxFillThreshold,
		"vision.min_box_area_ratio":         c.Vision.MinBoxAreaRatio,
		"vision.max_box_area_ratio":         c.Vision.MaxBoxAreaRatio,
		"vision.overlap_threshold":          c.Vision.OverlapThreshold,
		"vision.bold_ink_density_threshold": c.Vision.BoldInkDensityThreshold,
		"recognizer.min_confidence":         c.Recognizer.MinConfidence,
	} {
		if err := validateThreshold(v, name); err != nil {
			return err
		}
	}
	if c.Schema.Threshold == 0 {
		return errors.New("invalid schema.threshold: must be greater than 0")
	}

	if c.Layout.HeaderHeightMultiplier <= 0 {
		return fmt.Errorf("invalid header height multiplier: %.2f (must be positive)", c.Layout.HeaderHeightMultiplier)
	}
	for _, p := range c.Layout.HeaderPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid header pattern %q: %w", p, err)
		}
	}
	if c.Layout.MaxCheckboxDistance <= 0 {
		return fmt.Errorf("invalid max checkbox distance: %.1f (must be positive)", c.Layout.MaxCheckboxDistance)
	}
	if c.Layout.SameRowYTolerance < 0 {
		return fmt.Errorf("invalid same row tolerance: %.1f (must not be negative)", c.Layout.SameRowYTolerance)
	}

	if c.Vision.CheckboxMinArea <= 0 || c.Vision.CheckboxMinArea > c.Vision.CheckboxMaxArea {
		return fmt.Errorf("invalid checkbox area range: %.0f..%.0f", c.Vision.CheckboxMinArea, c.Vision.CheckboxMaxArea)
	}
	if c.Vision.MinBoxAreaRatio > c.Vision.MaxBoxAreaRatio {
		return fmt.Errorf("invalid section box area ratio range: %.2f..%.2f", c.Vision.MinBoxAreaRatio, c.Vision.MaxBoxAreaRatio)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerSecond <= 0 || c.Server.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid rate limit: %.2f req/s, burst %d (both must be positive)",
			c.Server.RateLimit.RequestsPerSecond, c.Server.RateLimit.Burst)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	return nil
}

// ToLayoutConfig converts to layout.Config.
func (c *Config) ToLayoutConfig() layout.Config {
	cfg := layout.DefaultConfig()
	cfg.Header.HeightMultiplier = c.Layout.HeaderHeightMultiplier
	if len(c.Layout.HeaderPatterns) > 0 {
		cfg.Header.Patterns = c.Layout.HeaderPatterns
	}
	cfg.Header.UseBold = c.Layout.UseBold
	cfg.Grouping.MaxCheckboxDistance = c.Layout.MaxCheckboxDistance
	if len(c.Layout.LabelSuffixes) > 0 {
		cfg.Grouping.LabelSuffixes = c.Layout.LabelSuffixes
	}
	if c.Layout.SameLineRatio > 0 {
		cfg.Grouping.SameLineRatio = c.Layout.SameLineRatio
	}
	return cfg
}

// ToVisionConfig converts to vision.Config, keeping package defaults for the rest.
func (c *Config) ToVisionConfig() vision.Config {
	cfg := vision.DefaultConfig()
	cfg.CheckboxMinArea = c.Vision.CheckboxMinArea
	cfg.CheckboxMaxArea = c.Vision.CheckboxMaxArea
	cfg.CheckboxFillThreshold = c.Vision.CheckboxFillThreshold
	cfg.MinBoxAreaRatio = c.Vision.MinBoxAreaRatio
	cfg.MaxBoxAreaRatio = c.Vision.MaxBoxAreaRatio
	cfg.OverlapThreshold = c.Vision.OverlapThreshold
	cfg.BoldInkDensityThreshold = c.Vision.BoldInkDensityThreshold
	return cfg
}

// ToStructureConfig converts to structure.Config.
func (c *Config) ToStructureConfig() structure.Config {
	return structure.Config{SameRowYTolerance: c.Layout.SameRowYTolerance}
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.SchemaPath = c.Schema.Path
	cfg.Threshold = c.Schema.Threshold
	cfg.Layout = c.ToLayoutConfig()
	cfg.Vision = c.ToVisionConfig()
	cfg.EnableVision = c.Vision.Enabled
	cfg.Structure = c.ToStructureConfig()
	cfg.Recognizer.Language = c.Recognizer.Language
	cfg.Recognizer.MinConfidence = c.Recognizer.MinConfidence
	cfg.EnableRecognizer = c.Recognizer.Enabled
	cfg.Classification = enrich.KeywordRules(c.Enrich.Classification)
	cfg.Naming = enrich.KeywordRules(c.Enrich.Naming)
	if c.Batch.Workers > 0 {
		cfg.Parallel.MaxWorkers = c.Batch.Workers
	}
	return cfg
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
