// Package imageio loads page images from raster files and single PDF pages.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder

	"github.com/MeKo-Tech/formscan/internal/utils"
)

// ErrNoImages is returned when a PDF page carries no embedded raster image.
var ErrNoImages = errors.New("no images found on PDF page")

var supportedExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".pdf": true,
}

// IsSupported reports whether the path has a loadable extension.
func IsSupported(path string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(path))]
}

// Load reads a page image. PDF files use their first page.
func Load(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return LoadPDFPage(path, 1)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &utils.ImageProcessingError{Operation: "load " + path, Err: err}
	}
	return img, nil
}

// Decode reads a page image from memory, accepting PDF bytes as well.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &utils.ImageProcessingError{Operation: "read", Err: err}
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return decodePDF(data)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &utils.ImageProcessingError{Operation: "decode", Err: err}
	}
	return img, nil
}

func decodePDF(data []byte) (image.Image, error) {
	tmp, err := os.CreateTemp("", "formscan-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	return LoadPDFPage(tmp.Name(), 1)
}

// LoadPDFPage extracts the embedded images of one page and returns the largest by area.
// Scanned forms embed the page scan as a single image, so the largest one is the page.
func LoadPDFPage(path string, page int) (image.Image, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}
	tempDir, err := os.MkdirTemp("", "formscan-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(path, tempDir, []string{strconv.Itoa(page)}, nil); err != nil {
		return nil, &utils.ImageProcessingError{Operation: "extract PDF images", Err: err}
	}

	img, err := largestImage(tempDir)
	if err != nil {
		return nil, fmt.Errorf("page %d of %s: %w", page, path, err)
	}
	return img, nil
}

// largestImage decodes every image under dir and keeps the one with the largest area.
// Files that fail to decode are skipped.
func largestImage(dir string) (image.Image, error) {
	var best image.Image
	bestArea := -1
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		img, err := imaging.Open(path)
		if err != nil {
			return nil
		}
		b := img.Bounds()
		if area := b.Dx() * b.Dy(); area > bestArea {
			best, bestArea = img, area
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, ErrNoImages
	}
	return best, nil
}
