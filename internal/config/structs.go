//nolint:lll
package config

import "github.com/MeKo-Tech/formscan/internal/enrich"

// Config represents the complete configuration for the formscan application.
// It includes settings for all commands (structure, batch, serve, mcp) and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Schema mapping
	Schema SchemaConfig `mapstructure:"schema" yaml:"schema" json:"schema"`

	// Layout analysis and structure building
	Layout LayoutConfig `mapstructure:"layout" yaml:"layout" json:"layout"`

	// Image-based detectors
	Vision VisionConfig `mapstructure:"vision" yaml:"vision" json:"vision"`

	// Live recognizer (tesseract builds only)
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`

	// Metadata rules
	Enrich EnrichConfig `mapstructure:"enrich" yaml:"enrich" json:"enrich"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// SchemaConfig selects the key table and fuzzy threshold.
type SchemaConfig struct {
	Path      string  `mapstructure:"path" yaml:"path" json:"path"`
	Threshold float64 `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
}

// LayoutConfig contains header, grouping and row settings.
type LayoutConfig struct {
	HeaderHeightMultiplier float64  `mapstructure:"header_height_multiplier" yaml:"header_height_multiplier" json:"header_height_multiplier"`
	HeaderPatterns         []string `mapstructure:"header_patterns" yaml:"header_patterns" json:"header_patterns"`
	UseBold                bool     `mapstructure:"use_bold" yaml:"use_bold" json:"use_bold"`
	MaxCheckboxDistance    float64  `mapstructure:"max_checkbox_distance" yaml:"max_checkbox_distance" json:"max_checkbox_distance"`
	LabelSuffixes          []string `mapstructure:"label_suffixes" yaml:"label_suffixes" json:"label_suffixes"`
	SameLineRatio          float64  `mapstructure:"same_line_ratio" yaml:"same_line_ratio" json:"same_line_ratio"`
	SameRowYTolerance      float64  `mapstructure:"same_row_y_tolerance" yaml:"same_row_y_tolerance" json:"same_row_y_tolerance"`
}

// VisionConfig contains the image detector settings most worth tuning per scanner.
type VisionConfig struct {
	Enabled                 bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	CheckboxMinArea         float64 `mapstructure:"checkbox_min_area" yaml:"checkbox_min_area" json:"checkbox_min_area"`
	CheckboxMaxArea         float64 `mapstructure:"checkbox_max_area" yaml:"checkbox_max_area" json:"checkbox_max_area"`
	CheckboxFillThreshold   float64 `mapstructure:"checkbox_fill_threshold" yaml:"checkbox_fill_threshold" json:"checkbox_fill_threshold"`
	MinBoxAreaRatio         float64 `mapstructure:"min_box_area_ratio" yaml:"min_box_area_ratio" json:"min_box_area_ratio"`
	MaxBoxAreaRatio         float64 `mapstructure:"max_box_area_ratio" yaml:"max_box_area_ratio" json:"max_box_area_ratio"`
	OverlapThreshold        float64 `mapstructure:"overlap_threshold" yaml:"overlap_threshold" json:"overlap_threshold"`
	BoldInkDensityThreshold float64 `mapstructure:"bold_ink_density_threshold" yaml:"bold_ink_density_threshold" json:"bold_ink_density_threshold"`
}

// RecognizerConfig contains live recognition settings.
type RecognizerConfig struct {
	Enabled       bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Language      string  `mapstructure:"language" yaml:"language" json:"language"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
}

// EnrichConfig holds keyword rules for the name and classification metadata.
type EnrichConfig struct {
	Classification []enrich.Rule `mapstructure:"classification" yaml:"classification" json:"classification"`
	Naming         []enrich.Rule `mapstructure:"naming" yaml:"naming" json:"naming"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client token bucket settings.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst" json:"burst"`
	IdleTimeoutSec    int     `mapstructure:"idle_timeout_sec" yaml:"idle_timeout_sec" json:"idle_timeout_sec"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	ImageExtensions []string `mapstructure:"image_extensions" yaml:"image_extensions" json:"image_extensions"`
	OutputDir       string   `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}
