package vision

import (
	"image"

	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/utils"
)

// IsBold reports whether the ink density inside the token bounds exceeds the bold
// threshold. Tokens outside the image, empty crops and uniform crops are not bold.
func (d *Detector) IsBold(tok layout.Token, img image.Image) bool {
	return d.InkDensity(tok, img) > d.cfg.BoldInkDensityThreshold
}

// InkDensity returns the share of dark pixels inside the token bounds after Otsu
// binarization of the crop.
func (d *Detector) InkDensity(tok layout.Token, img image.Image) float64 {
	if img == nil || len(tok.Polygon) == 0 {
		return 0
	}
	rect := tok.Bounds().ToRect(img.Bounds())
	if rect.Empty() {
		return 0
	}
	crop := newGrayRaster(utils.CropImageBox(img, tok.Bounds()))
	t, ok := otsuThreshold(crop.pix)
	if !ok {
		return 0
	}
	ink := 0
	for _, v := range crop.pix {
		if v <= t {
			ink++
		}
	}
	return float64(ink) / float64(len(crop.pix))
}
