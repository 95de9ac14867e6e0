package vision

import (
	"image"
	"log/slog"

	"github.com/MeKo-Tech/formscan/internal/layout"
)

// Detector runs the visual cue detectors with a fixed configuration. It holds no per-image
// state and is safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector. Zero-valued fields fall back to the defaults.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: withDefaults(cfg)}
}

// Config returns the effective configuration.
func (d *Detector) Config() Config { return d.cfg }

var _ layout.VisualDetector = (*Detector)(nil)

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	orF := func(v *float64, fallback float64) {
		if *v <= 0 {
			*v = fallback
		}
	}
	orI := func(v *int, fallback int) {
		if *v <= 0 {
			*v = fallback
		}
	}
	orF(&cfg.EdgeLowThreshold, def.EdgeLowThreshold)
	orF(&cfg.EdgeHighThreshold, def.EdgeHighThreshold)
	orI(&cfg.DilateKernel, def.DilateKernel)
	orI(&cfg.DilateIterations, def.DilateIterations)
	orF(&cfg.MinBoxAreaRatio, def.MinBoxAreaRatio)
	orF(&cfg.MaxBoxAreaRatio, def.MaxBoxAreaRatio)
	orF(&cfg.ContourApproxEpsilon, def.ContourApproxEpsilon)
	orF(&cfg.SectionBoxAspectMin, def.SectionBoxAspectMin)
	orI(&cfg.SectionBoxMinHeight, def.SectionBoxMinHeight)
	orF(&cfg.SectionNameYTolerance, def.SectionNameYTolerance)
	orF(&cfg.OverlapThreshold, def.OverlapThreshold)
	if cfg.BinaryThreshold == 0 {
		cfg.BinaryThreshold = def.BinaryThreshold
	}
	orF(&cfg.CheckboxMinArea, def.CheckboxMinArea)
	orF(&cfg.CheckboxMaxArea, def.CheckboxMaxArea)
	orF(&cfg.CheckboxAspectMin, def.CheckboxAspectMin)
	orF(&cfg.CheckboxAspectMax, def.CheckboxAspectMax)
	orF(&cfg.CheckboxFillThreshold, def.CheckboxFillThreshold)
	orF(&cfg.TextBoxMargin, def.TextBoxMargin)
	orF(&cfg.BoldInkDensityThreshold, def.BoldInkDensityThreshold)
	return cfg
}

func usable(img image.Image) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		slog.Debug("Image too small for visual detection", "width", b.Dx(), "height", b.Dy())
		return false
	}
	return true
}
