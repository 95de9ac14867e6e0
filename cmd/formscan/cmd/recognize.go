package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/formscan/internal/imageio"
	"github.com/MeKo-Tech/formscan/internal/tokens"
)

func newRecognizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recognize <image>",
		Short: "Run OCR on a page image and print its tokens",
		Long: `Run the OCR backend on a page image and print the tokens in the format the
structure command reads. Requires a binary built with -tags=tesseract.

Examples:
  formscan recognize scan.png > scan.json
  formscan recognize scan.pdf --language eng+deu --min-confidence 0.6`,
		Args: cobra.ExactArgs(1),
		RunE: runRecognize,
	}
	cmd.Flags().String("language", "", "OCR language code(s), e.g. eng or eng+deu")
	cmd.Flags().Float64("min-confidence", 0, "drop words below this confidence (0.0-1.0)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	return cmd
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	opts := tokens.RecognizerOptions{
		Language:      cfg.Recognizer.Language,
		MinConfidence: cfg.Recognizer.MinConfidence,
	}
	if cmd.Flags().Changed("language") {
		opts.Language, _ = cmd.Flags().GetString("language")
	}
	if cmd.Flags().Changed("min-confidence") {
		opts.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
	}
	if opts.MinConfidence < 0 || opts.MinConfidence > 1 {
		return fmt.Errorf("invalid min confidence: %.2f (must be between 0.0 and 1.0)", opts.MinConfidence)
	}
	outputFile, _ := cmd.Flags().GetString("output")

	img, err := imageio.Load(args[0])
	if err != nil {
		return err
	}

	rec, err := tokens.NewRecognizer(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			slog.Error("Error closing recognizer", "error", err)
		}
	}()

	toks, err := rec.Recognize(cmd.Context(), img)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}
	slog.Info("Recognized page", "file", args[0], "tokens", len(toks))

	data, err := tokens.Marshal(toks)
	if err != nil {
		return err
	}
	return emit(cmd, append(data, '\n'), outputFile)
}
