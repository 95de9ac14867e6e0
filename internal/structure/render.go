package structure

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats understood by Render.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Render writes doc in the requested format.
func Render(w io.Writer, doc Document, format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return renderText(w, doc)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func renderText(w io.Writer, doc Document) error {
	var b strings.Builder
	for i, s := range doc.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", s.Name)
		for _, f := range s.Fields {
			if !f.Answer.IsChoice() {
				fmt.Fprintf(&b, "  %s = %s\n", f.Question, f.Answer.Text())
				continue
			}
			fmt.Fprintf(&b, "  %s\n", f.Question)
			for _, c := range f.Answer.Choices() {
				mark := " "
				if c.Value == "selected" {
					mark = "x"
				}
				fmt.Fprintf(&b, "    [%s] %s\n", mark, c.Option)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
