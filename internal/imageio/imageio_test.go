package imageio

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/MeKo-Tech/formscan/internal/testutil"
	"github.com/MeKo-Tech/formscan/internal/utils"
)

func solid(w, h int) image.Image {
	return imaging.New(w, h, color.White)
}

func TestLoad_RasterFormats(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page.png", "page.jpg", "page.tiff", "page.gif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, imaging.Save(solid(40, 30), path))

			img, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 40, img.Bounds().Dx())
			assert.Equal(t, 30, img.Bounds().Dy())
		})
	}
}

func TestDecode_BMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, solid(12, 8)))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.png"))
	var ipe *utils.ImageProcessingError
	assert.ErrorAs(t, err, &ipe)

	bad := testutil.WriteFile(t, dir, "bad.png", "not an image")
	_, err = Load(bad)
	assert.ErrorAs(t, err, &ipe)

	_, err = Decode(bytes.NewReader([]byte("garbage")))
	assert.ErrorAs(t, err, &ipe)
}

func TestLoadPDFPage_InvalidPDF(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "broken.pdf", "%PDF-1.4\nnot really a pdf")

	_, err := Load(path)
	assert.Error(t, err)

	_, err = LoadPDFPage(path, 0)
	assert.Error(t, err)
}

func TestLargestImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, imaging.Save(solid(10, 10), filepath.Join(dir, "scan_1_1.png")))
	require.NoError(t, imaging.Save(solid(120, 80), filepath.Join(dir, "scan_1_2.png")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan_1_3.png"), []byte("junk"), 0o600))

	img, err := largestImage(dir)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())

	_, err = largestImage(t.TempDir())
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a.PNG"))
	assert.True(t, IsSupported("scan.pdf"))
	assert.True(t, IsSupported("scan.tif"))
	assert.False(t, IsSupported("tokens.json"))
}
