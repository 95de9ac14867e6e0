// Package tokens reads recognized text tokens from OCR output files and live recognizers.
package tokens

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/utils"
)

// ErrUnsupportedFormat is returned when token data is in no known layout.
var ErrUnsupportedFormat = errors.New("unsupported token format")

// Format identifies a token file layout.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatHOCR Format = "hocr"
)

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hocr", ".html", ".htm", ".xhtml":
		return FormatHOCR
	case ".json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// LoadFile reads and parses a token file.
func LoadFile(path string) ([]layout.Token, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading user-provided token file
	if err != nil {
		return nil, fmt.Errorf("read tokens %s: %w", path, err)
	}
	toks, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("parse tokens %s: %w", path, err)
	}
	return toks, nil
}

// Parse decodes token data. FormatAuto sniffs the first non-space byte.
func Parse(data []byte, format Format) ([]layout.Token, error) {
	if format == FormatAuto {
		format = sniff(data)
	}
	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatHOCR:
		return ParseHOCR(bytes.NewReader(data))
	default:
		return nil, ErrUnsupportedFormat
	}
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatAuto
	}
	switch trimmed[0] {
	case '{', '[':
		return FormatJSON
	case '<':
		return FormatHOCR
	default:
		return FormatAuto
	}
}

type wireToken struct {
	Text          string          `json:"text"`
	Polygon       json.RawMessage `json:"polygon"`
	Confidence    *float64        `json:"confidence"`
	RecConfidence *float64        `json:"rec_confidence"`
}

type wireDocument struct {
	Tokens  []wireToken `json:"tokens"`
	Regions []wireToken `json:"regions"`
}

// ParseJSON accepts {"tokens":[...]}, a bare array of tokens, or an OCR result with "regions".
// Polygons may be [[x,y],...] pairs or [{"x":..,"y":..},...] objects.
func ParseJSON(data []byte) ([]layout.Token, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrUnsupportedFormat
	}

	var wire []wireToken
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			return nil, fmt.Errorf("decode token array: %w", err)
		}
	case '{':
		var doc wireDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode token document: %w", err)
		}
		switch {
		case doc.Tokens != nil:
			wire = doc.Tokens
		case doc.Regions != nil:
			wire = doc.Regions
		default:
			return nil, fmt.Errorf("%w: no tokens or regions key", ErrUnsupportedFormat)
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	out := make([]layout.Token, 0, len(wire))
	for i, w := range wire {
		poly, err := decodePolygon(w.Polygon)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		tok := layout.Token{Text: w.Text, Polygon: poly}
		switch {
		case w.Confidence != nil:
			tok.Confidence = *w.Confidence
		case w.RecConfidence != nil:
			tok.Confidence = *w.RecConfidence
		}
		out = append(out, tok)
	}
	return out, nil
}

func decodePolygon(raw json.RawMessage) ([]utils.Point, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err == nil {
		pts := make([]utils.Point, 0, len(pairs))
		for _, p := range pairs {
			if len(p) < 2 {
				return nil, fmt.Errorf("%w: polygon point has %d coordinates", layout.ErrMalformedToken, len(p))
			}
			pts = append(pts, utils.Point{X: p[0], Y: p[1]})
		}
		return pts, nil
	}
	var objs []utils.Point
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("%w: polygon: %v", layout.ErrMalformedToken, err)
	}
	return objs, nil
}

// Marshal writes tokens in the native {"tokens":[...]} layout with [x,y] pairs.
func Marshal(toks []layout.Token) ([]byte, error) {
	type outToken struct {
		Text       string       `json:"text"`
		Polygon    [][2]float64 `json:"polygon"`
		Confidence float64      `json:"confidence"`
	}
	doc := struct {
		Tokens []outToken `json:"tokens"`
	}{Tokens: make([]outToken, 0, len(toks))}
	for _, t := range toks {
		poly := make([][2]float64, 0, len(t.Polygon))
		for _, p := range t.Polygon {
			poly = append(poly, [2]float64{p.X, p.Y})
		}
		doc.Tokens = append(doc.Tokens, outToken{Text: t.Text, Polygon: poly, Confidence: t.Confidence})
	}
	return json.MarshalIndent(doc, "", "  ")
}
