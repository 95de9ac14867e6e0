package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/formscan/internal/pipeline"
	"github.com/MeKo-Tech/formscan/internal/structure"
)

// Batch output formats. CSV flattens every answer into one row.
const (
	FormatJSON = structure.FormatJSON
	FormatYAML = structure.FormatYAML
	FormatText = structure.FormatText
	FormatCSV  = "csv"
)

type documentEntry struct {
	File   string           `json:"file" yaml:"file"`
	Result *pipeline.Result `json:"result,omitempty" yaml:"result,omitempty"`
}

// formatBatchResults formats the batch processing results in the specified format.
func formatBatchResults(results []*pipeline.Result, sources []string, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return formatJSON(results, sources)
	case FormatYAML:
		return formatYAML(results, sources)
	case FormatCSV:
		return formatCSV(results, sources)
	case FormatText:
		return formatText(results, sources)
	default:
		return "", fmt.Errorf("unsupported batch format: %s", format)
	}
}

func entries(results []*pipeline.Result, sources []string) []documentEntry {
	out := make([]documentEntry, len(results))
	for i, res := range results {
		out[i] = documentEntry{File: sources[i], Result: res}
	}
	return out
}

func formatJSON(results []*pipeline.Result, sources []string) (string, error) {
	batchResult := struct {
		Documents []documentEntry `json:"documents"`
	}{Documents: entries(results, sources)}

	bts, err := json.MarshalIndent(batchResult, "", "  ")
	return string(bts) + "\n", err
}

func formatYAML(results []*pipeline.Result, sources []string) (string, error) {
	batchResult := struct {
		Documents []documentEntry `yaml:"documents"`
	}{Documents: entries(results, sources)}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(batchResult); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatCSV writes one row per answer. Choice answers produce one row per option.
func formatCSV(results []*pipeline.Result, sources []string) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write([]string{"file", "section", "question", "option", "answer"}); err != nil {
		return "", err
	}

	for i, res := range results {
		if res == nil {
			continue
		}
		for _, section := range res.Form.Sections {
			for _, qa := range section.Fields {
				if !qa.Answer.IsChoice() {
					if err := writer.Write([]string{sources[i], section.Name, qa.Question, "", qa.Answer.Text()}); err != nil {
						return "", err
					}
					continue
				}
				for _, c := range qa.Answer.Choices() {
					if err := writer.Write([]string{sources[i], section.Name, qa.Question, c.Option, c.Value}); err != nil {
						return "", err
					}
				}
			}
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func formatText(results []*pipeline.Result, sources []string) (string, error) {
	var output strings.Builder
	for i, res := range results {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("# %s\n", sources[i]))
		if res == nil {
			output.WriteString("(not processed)\n")
			continue
		}
		if err := structure.Render(&output, res.Form, FormatText); err != nil {
			return "", err
		}
		for _, e := range res.Errors {
			output.WriteString(fmt.Sprintf("! %s\n", e))
		}
	}
	return output.String(), nil
}

// writePerDocument writes each result next to the others in dir as <stem>.<ext>.
func writePerDocument(results []*pipeline.Result, sources []string, format, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	ext := strings.ToLower(format)
	if ext == "" {
		ext = FormatJSON
	}
	if ext == FormatText {
		ext = "txt"
	}

	var written []string
	for i, res := range results {
		if res == nil {
			continue
		}
		out, err := formatBatchResults(results[i:i+1], sources[i:i+1], format)
		if err != nil {
			return written, err
		}
		base := filepath.Base(sources[i])
		path := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+"."+ext)
		if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
