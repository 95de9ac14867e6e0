package support

import (
	"fmt"
	"image/png"
	"os"

	"github.com/MeKo-Tech/formscan/internal/testutil"
)

// Token fixtures keyed by the name used in feature files.
var forms = map[string]string{
	"patient details": `{"tokens":[
 {"text":"PATIENT DETAILS","polygon":[[10,10],[200,10],[200,40],[10,40]],"confidence":0.95},
 {"text":"Name:","polygon":[[20,60],[80,60],[80,80],[20,80]],"confidence":0.9},
 {"text":"Jane Brown","polygon":[[100,60],[200,60],[200,80],[100,80]],"confidence":0.9}
]}`,
	"two sections": `{"tokens":[
 {"text":"PATIENT DETAILS","polygon":[[10,10],[200,10],[200,40],[10,40]],"confidence":0.95},
 {"text":"Name:","polygon":[[20,60],[80,60],[80,80],[20,80]],"confidence":0.9},
 {"text":"Jane Brown","polygon":[[100,60],[200,60],[200,80],[100,80]],"confidence":0.9},
 {"text":"CONTACT DETAILS","polygon":[[10,200],[200,200],[200,230],[10,230]],"confidence":0.95},
 {"text":"Phone:","polygon":[[20,250],[80,250],[80,270],[20,270]],"confidence":0.9},
 {"text":"555 0100","polygon":[[100,250],[200,250],[200,270],[100,270]],"confidence":0.9}
]}`,
	"hocr": `<html><body><div class="ocr_page" title="bbox 0 0 400 300">
<span class="ocr_line" title="bbox 10 10 200 40"><span class="ocrx_word" title="bbox 10 10 200 40; x_wconf 95">PATIENT</span></span>
</div></body></html>`,
}

func (testCtx *TestContext) aTokenFileWithForm(name, form string) error {
	content, ok := forms[form]
	if !ok {
		return fmt.Errorf("unknown form fixture %q", form)
	}
	_, err := testCtx.writeFile(name, content)
	return err
}

func (testCtx *TestContext) aFileContaining(name, content string) error {
	_, err := testCtx.writeFile(name, content)
	return err
}

// aBlankPageImage writes a white page with no marks.
func (testCtx *TestContext) aBlankPageImage(name string) error {
	img := testutil.NewCanvas(400, 300).Image()
	f, err := os.Create(testCtx.Path(name))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, img)
}
