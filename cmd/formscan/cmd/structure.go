package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/formscan/internal/config"
	"github.com/MeKo-Tech/formscan/internal/pipeline"
	"github.com/MeKo-Tech/formscan/internal/structure"
)

func newStructureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure [tokens-file]",
		Short: "Structure one form from its OCR tokens and optional page image",
		Long: `Reconstruct the sections and question/answer pairs of a single form.

The tokens file holds OCR output as JSON ({"tokens":[{"text","polygon","confidence"}]})
or hOCR. With --image, checkboxes and section boxes are detected on the page; PDFs use
the largest image on their first page. With --recognize and no tokens file, the page
image is run through the OCR backend first.

Examples:
  formscan structure form.json
  formscan structure form.json --image form.png --format text
  formscan structure form.hocr --threshold 0.9 --output form.yaml --format yaml
  formscan structure --image scan.tif --recognize`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStructure,
	}

	cmd.Flags().StringP("image", "i", "", "page image for visual cues (PNG, JPEG, TIFF, BMP, GIF or PDF)")
	addPipelineFlags(cmd.Flags())
	cmd.Flags().StringP("format", "f", structure.FormatJSON, "output format: json, yaml, text")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().Bool("form-only", false, "print only the form, without metadata and errors")
	cmd.Flags().Bool("strict", false, "exit non-zero when any stage reports an error")
	return cmd
}

// addPipelineFlags registers the flags every structuring command shares.
func addPipelineFlags(fs *pflag.FlagSet) {
	fs.Float64("threshold", 0, "fuzzy key matching threshold (0.0-1.0)")
	fs.Bool("no-vision", false, "skip checkbox and box detection even when an image is given")
	fs.Bool("recognize", false, "run OCR on page images that have no tokens")
	fs.String("language", "", "OCR language code(s), e.g. eng or eng+deu")
}

// pipelineConfigFrom maps configuration to the pipeline, letting changed flags win.
func pipelineConfigFrom(cfg *config.Config, cmd *cobra.Command) pipeline.Config {
	if cmd.Flags().Changed("threshold") {
		cfg.Schema.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("no-vision") {
		noVision, _ := cmd.Flags().GetBool("no-vision")
		cfg.Vision.Enabled = !noVision
	}
	if cmd.Flags().Changed("recognize") {
		cfg.Recognizer.Enabled, _ = cmd.Flags().GetBool("recognize")
	}
	if cmd.Flags().Changed("language") {
		cfg.Recognizer.Language, _ = cmd.Flags().GetString("language")
	}
	return cfg.ToPipelineConfig()
}

func runStructure(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}
	imagePath, _ := cmd.Flags().GetString("image")
	formOnly, _ := cmd.Flags().GetBool("form-only")
	strict, _ := cmd.Flags().GetBool("strict")

	if err := validateFormat(format); err != nil {
		return err
	}

	var tokensPath string
	if len(args) > 0 {
		tokensPath = args[0]
	}
	if tokensPath == "" && imagePath == "" {
		return errors.New("no tokens file or image provided")
	}

	pCfg := pipelineConfigFrom(cfg, cmd)
	if tokensPath == "" && !pCfg.EnableRecognizer {
		return errors.New("an image without tokens needs --recognize")
	}

	in, err := pipeline.LoadInput(tokensPath, imagePath)
	if err != nil {
		return err
	}

	pl, err := pipeline.NewBuilderWithConfig(pCfg).Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			slog.Error("Error closing pipeline", "error", err)
		}
	}()

	res, err := pl.Process(cmd.Context(), in)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writeResult(&buf, res, format, formOnly); err != nil {
		return err
	}
	if err := emit(cmd, buf.Bytes(), outputFile); err != nil {
		return err
	}

	if strict && res.HasErrors() {
		return fmt.Errorf("%d stage error(s): %s", len(res.Errors), strings.Join(res.Errors, "; "))
	}
	return nil
}

func validateFormat(format string) error {
	for _, f := range config.ValidOutputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid output format: %s (must be one of: %s)",
		format, strings.Join(config.ValidOutputFormats, ", "))
}

// writeResult renders the envelope, or only the form when formOnly is set. Text output is
// always the form; stage errors follow as comment lines.
func writeResult(w io.Writer, res *pipeline.Result, format string, formOnly bool) error {
	switch format {
	case structure.FormatText:
		if err := structure.Render(w, res.Form, structure.FormatText); err != nil {
			return err
		}
		if !formOnly {
			for _, e := range res.Errors {
				if _, err := fmt.Fprintf(w, "# error: %s\n", e); err != nil {
					return err
				}
			}
		}
		return nil
	case structure.FormatYAML:
		if formOnly {
			return structure.Render(w, res.Form, structure.FormatYAML)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	default:
		if formOnly {
			return structure.Render(w, res.Form, structure.FormatJSON)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
}

// emit writes data to outputFile, or to the command's stdout when it is empty.
func emit(cmd *cobra.Command, data []byte, outputFile string) error {
	if outputFile == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(outputFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	slog.Info("Output written", "file", outputFile)
	return nil
}
