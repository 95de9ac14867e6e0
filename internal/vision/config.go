// Package vision finds the visual cues of a scanned form: drawn section boxes, checkboxes
// and bold text.
package vision

// Config holds detector thresholds. Pixel values are in page pixels of the decoded image.
type Config struct {
	// Edge map for section boxes.
	EdgeLowThreshold  float64 `mapstructure:"edge_low_threshold" yaml:"edge_low_threshold" json:"edge_low_threshold"`
	EdgeHighThreshold float64 `mapstructure:"edge_high_threshold" yaml:"edge_high_threshold" json:"edge_high_threshold"`
	DilateKernel      int     `mapstructure:"dilate_kernel" yaml:"dilate_kernel" json:"dilate_kernel"`
	DilateIterations  int     `mapstructure:"dilate_iterations" yaml:"dilate_iterations" json:"dilate_iterations"`

	// Section box acceptance.
	MinBoxAreaRatio       float64 `mapstructure:"min_box_area_ratio" yaml:"min_box_area_ratio" json:"min_box_area_ratio"`
	MaxBoxAreaRatio       float64 `mapstructure:"max_box_area_ratio" yaml:"max_box_area_ratio" json:"max_box_area_ratio"`
	ContourApproxEpsilon  float64 `mapstructure:"contour_approx_epsilon" yaml:"contour_approx_epsilon" json:"contour_approx_epsilon"`
	SectionBoxAspectMin   float64 `mapstructure:"section_box_aspect_min" yaml:"section_box_aspect_min" json:"section_box_aspect_min"`
	SectionBoxMinHeight   int     `mapstructure:"section_box_min_height" yaml:"section_box_min_height" json:"section_box_min_height"`
	SectionNameYTolerance float64 `mapstructure:"section_name_y_tolerance" yaml:"section_name_y_tolerance" json:"section_name_y_tolerance"`
	OverlapThreshold      float64 `mapstructure:"overlap_threshold" yaml:"overlap_threshold" json:"overlap_threshold"`

	// Checkboxes.
	BinaryThreshold       uint8   `mapstructure:"binary_threshold" yaml:"binary_threshold" json:"binary_threshold"`
	CheckboxMinArea       float64 `mapstructure:"checkbox_min_area" yaml:"checkbox_min_area" json:"checkbox_min_area"`
	CheckboxMaxArea       float64 `mapstructure:"checkbox_max_area" yaml:"checkbox_max_area" json:"checkbox_max_area"`
	CheckboxAspectMin     float64 `mapstructure:"checkbox_aspect_min" yaml:"checkbox_aspect_min" json:"checkbox_aspect_min"`
	CheckboxAspectMax     float64 `mapstructure:"checkbox_aspect_max" yaml:"checkbox_aspect_max" json:"checkbox_aspect_max"`
	CheckboxFillThreshold float64 `mapstructure:"checkbox_fill_threshold" yaml:"checkbox_fill_threshold" json:"checkbox_fill_threshold"`
	TextBoxMargin         float64 `mapstructure:"text_box_margin" yaml:"text_box_margin" json:"text_box_margin"`

	// Bold text.
	BoldInkDensityThreshold float64 `mapstructure:"bold_ink_density_threshold" yaml:"bold_ink_density_threshold" json:"bold_ink_density_threshold"`
}

// DefaultConfig returns thresholds tuned for 150-300 dpi scans.
func DefaultConfig() Config {
	return Config{
		EdgeLowThreshold:  50,
		EdgeHighThreshold: 150,
		DilateKernel:      3,
		DilateIterations:  1,

		MinBoxAreaRatio:       0.01,
		MaxBoxAreaRatio:       0.95,
		ContourApproxEpsilon:  0.02,
		SectionBoxAspectMin:   0.5,
		SectionBoxMinHeight:   30,
		SectionNameYTolerance: 30,
		OverlapThreshold:      0.5,

		BinaryThreshold:       127,
		CheckboxMinArea:       100,
		CheckboxMaxArea:       2000,
		CheckboxAspectMin:     0.8,
		CheckboxAspectMax:     1.2,
		CheckboxFillThreshold: 0.5,
		TextBoxMargin:         5,

		BoldInkDensityThreshold: 0.30,
	}
}
