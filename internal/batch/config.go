package batch

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MeKo-Tech/formscan/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Pipeline settings shared by every document
	Pipeline pipeline.Config

	// Parallel processing settings
	Workers int

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	ImageExtensions []string

	// Output settings
	Format          string
	OutputFile      string
	OutputDir       string
	ContinueOnError bool

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ProgressInterval time.Duration
}

// DefaultConfig returns batch settings around the default pipeline.
func DefaultConfig() *Config {
	return &Config{
		Pipeline:         pipeline.DefaultConfig(),
		Workers:          pipeline.DefaultParallelConfig().MaxWorkers,
		ImageExtensions:  []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".pdf"},
		Format:           FormatJSON,
		ContinueOnError:  true,
		ProgressInterval: time.Second,
	}
}

// Validate checks the batch settings.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d (must be >= 0)", c.Workers)
	}
	switch c.Format {
	case "", FormatJSON, FormatYAML, FormatText, FormatCSV:
	default:
		return fmt.Errorf("unsupported batch format: %s", c.Format)
	}
	if c.OutputFile != "" && c.OutputDir != "" {
		return errors.New("output file and output directory are mutually exclusive")
	}
	return nil
}

// Result holds the result of batch processing.
type Result struct {
	Results     []*pipeline.Result
	Sources     []string
	Failed      map[int]error
	Duration    time.Duration
	WorkerCount int
}

// Succeeded counts documents that produced a result without stage errors.
func (r *Result) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res != nil && !res.HasErrors() {
			n++
		}
	}
	return n
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Results, r.Sources, format)
}

// SaveResults writes the formatted results to a file, one file per document in a
// directory, or stdout.
func (r *Result) SaveResults(format, outputFile, outputDir string, quiet bool) error {
	if outputDir != "" {
		paths, err := writePerDocument(r.Results, r.Sources, format, outputDir)
		if err != nil {
			return err
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stderr, "Wrote %d results to %s\n", len(paths), outputDir)
		}
		return nil
	}

	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stderr, "Results written to %s\n", outputFile)
		}
		return nil
	}
	_, _ = fmt.Fprint(os.Stdout, output)
	return nil
}

// PrintStats prints processing statistics to stderr.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	total := len(r.Sources)
	perDoc := time.Duration(0)
	if total > 0 {
		perDoc = r.Duration / time.Duration(total)
	}
	_, _ = fmt.Fprintf(os.Stderr, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  Total documents: %d\n", total)
	_, _ = fmt.Fprintf(os.Stderr, "  Clean: %d\n", r.Succeeded())
	_, _ = fmt.Fprintf(os.Stderr, "  Failed to load: %d\n", len(r.Failed))
	_, _ = fmt.Fprintf(os.Stderr, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(os.Stderr, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stderr, "  Avg per document: %v\n", perDoc.Round(time.Millisecond))
}
