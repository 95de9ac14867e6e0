package schema

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/formscan/internal/textsim"
	"gopkg.in/yaml.v3"
)

// Column names recognised in a tabular schema source.
const (
	ColumnRaw       = "ocr_text"
	ColumnCanonical = "standard_key"
)

// ErrUnsupportedFormat is returned for schema files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported schema format")

// Entry pairs a normalized raw label with its canonical key.
type Entry struct {
	Raw       string `yaml:"ocr_text" json:"ocr_text"`
	Canonical string `yaml:"standard_key" json:"standard_key"`
}

// Table is an ordered set of raw-label to canonical-key entries.
// Insertion order decides ties during fuzzy matching.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add inserts or updates an entry. The raw label is normalized. A repeated label keeps its
// original position and takes the new canonical key. Rows with a blank side are ignored.
func (t *Table) Add(raw, canonical string) {
	key := textsim.Normalize(raw)
	canonical = strings.TrimSpace(canonical)
	if key == "" || canonical == "" {
		return
	}
	if i, ok := t.index[key]; ok {
		t.entries[i].Canonical = canonical
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Raw: key, Canonical: canonical})
}

// Lookup returns the canonical key for an already normalized label.
func (t *Table) Lookup(normalized string) (string, bool) {
	i, ok := t.index[normalized]
	if !ok {
		return "", false
	}
	return t.entries[i].Canonical, true
}

// Entries returns a copy of the entries in insertion order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// LoadTable reads a schema table from a CSV, TSV or YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: schema path is user supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseDelimited(bytes.NewReader(data), ',')
	case ".tsv":
		return ParseDelimited(bytes.NewReader(data), '\t')
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadTableOrEmpty loads a table and falls back to an empty one when the source is
// missing or unreadable. An empty path yields an empty table without a warning.
func LoadTableOrEmpty(path string) *Table {
	if path == "" {
		return NewTable()
	}
	t, err := LoadTable(path)
	if err != nil {
		slog.Warn("Schema table unavailable, continuing with identity mapping", "path", path, "error", err)
		return NewTable()
	}
	slog.Debug("Loaded schema table", "path", path, "entries", t.Len())
	return t
}

// ParseDelimited reads delimiter separated rows. A first row naming the ocr_text and
// standard_key columns is treated as a header; otherwise the first two columns are used.
func ParseDelimited(r io.Reader, delim rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema rows: %w", err)
	}

	t := NewTable()
	if len(records) == 0 {
		return t, nil
	}

	rawCol, canonCol := 0, 1
	start := 0
	if rc, cc, ok := headerColumns(records[0]); ok {
		rawCol, canonCol = rc, cc
		start = 1
	}
	for _, rec := range records[start:] {
		if len(rec) <= rawCol || len(rec) <= canonCol {
			continue
		}
		t.Add(rec[rawCol], rec[canonCol])
	}
	return t, nil
}

func headerColumns(row []string) (int, int, bool) {
	rawCol, canonCol := -1, -1
	for i, name := range row {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnRaw:
			rawCol = i
		case ColumnCanonical:
			canonCol = i
		}
	}
	if rawCol < 0 || canonCol < 0 {
		return 0, 0, false
	}
	return rawCol, canonCol, true
}

// ParseYAML accepts either a list of {ocr_text, standard_key} entries or a plain mapping
// from raw label to canonical key. Mapping order is preserved.
func ParseYAML(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema yaml: %w", err)
	}
	t := NewTable()
	if len(doc.Content) == 0 {
		return t, nil
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var entries []Entry
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to decode schema entries: %w", err)
		}
		for _, e := range entries {
			t.Add(e.Raw, e.Canonical)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			t.Add(root.Content[i].Value, root.Content[i+1].Value)
		}
	default:
		return nil, fmt.Errorf("failed to decode schema yaml: unexpected node kind %d", root.Kind)
	}
	return t, nil
}
