package tokens

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/MeKo-Tech/formscan/internal/layout"
)

const (
	classWord = "ocrx_word"
	classLine = "ocr_line"
)

// ParseHOCR reads Tesseract-style hOCR. Words become tokens; a page without word spans falls
// back to its lines.
func ParseHOCR(r io.Reader) ([]layout.Token, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing hOCR: %w", err)
	}

	words := collectClass(doc, classWord)
	if len(words) == 0 {
		words = collectClass(doc, classLine)
	}

	out := make([]layout.Token, 0, len(words))
	for _, n := range words {
		text := strings.Join(strings.Fields(textContent(n)), " ")
		if text == "" {
			continue
		}
		props := parseTitle(getAttr(n, "title"))
		bbox, ok := props["bbox"]
		if !ok || len(bbox) != 4 {
			continue
		}
		x0, y0, x1, y1, err := parseBBox(bbox)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", layout.ErrMalformedToken, text, err)
		}
		conf := 1.0
		if wc, ok := props["x_wconf"]; ok && len(wc) > 0 {
			if v, err := strconv.ParseFloat(wc[0], 64); err == nil {
				conf = clamp01(v / 100)
			}
		}
		out = append(out, layout.RectToken(text, x0, y0, x1, y1, conf))
	}
	return out, nil
}

func collectClass(n *html.Node, class string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			found = append(found, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// parseTitle splits an hOCR title like "bbox 10 20 30 40; x_wconf 93" into properties.
func parseTitle(title string) map[string][]string {
	props := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

func parseBBox(vals []string) (x0, y0, x1, y1 float64, err error) {
	var out [4]float64
	for i, v := range vals {
		out[i], err = strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("bbox: %w", err)
		}
	}
	return out[0], out[1], out[2], out[3], nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
