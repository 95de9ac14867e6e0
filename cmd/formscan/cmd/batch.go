package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/formscan/internal/batch"
	"github.com/MeKo-Tech/formscan/internal/config"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [files or directories...]",
		Short: "Structure many forms in parallel",
		Long: `Structure every token file found in the given files and directories.

Each token file (.json, .hocr, .html) is paired with a page image of the same name
when one exists (e.g. form1.json with form1.png). With --recognize, images that have
no token file are run through OCR instead.

Examples:
  formscan batch scans/
  formscan batch scans/ --recursive --workers 8 --format csv --output answers.csv
  formscan batch a.json b.json --output-dir structured/ --format yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatchCommand,
	}

	addPipelineFlags(cmd.Flags())

	cmd.Flags().StringP("format", "f", batch.FormatJSON, "output format: json, yaml, text, csv")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().String("output-dir", "", "write one result file per document into this directory")

	cmd.Flags().IntP("workers", "w", 0, fmt.Sprintf("number of parallel workers (default: %d)", runtime.NumCPU()))
	cmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	cmd.Flags().StringSlice("include", []string{}, "file patterns to include")
	cmd.Flags().StringSlice("exclude", []string{}, "file patterns to exclude")
	cmd.Flags().StringSlice("image-ext", []string{}, "image extensions paired with token files")
	cmd.Flags().Bool("fail-fast", false, "stop when a document cannot be loaded")

	cmd.Flags().Bool("progress", false, "log progress while processing")
	cmd.Flags().Bool("quiet", false, "suppress progress and statistics")
	cmd.Flags().Bool("stats", false, "print processing statistics")
	cmd.Flags().Duration("progress-interval", time.Second, "progress update interval")
	return cmd
}

// configToBatchConfig maps centralized configuration to batch.Config; changed flags win.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	bc := batch.DefaultConfig()
	bc.Pipeline = pipelineConfigFrom(cfg, cmd)

	bc.Workers = cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		bc.Workers, _ = cmd.Flags().GetInt("workers")
	}
	bc.Recursive = cfg.Batch.Recursive
	if cmd.Flags().Changed("recursive") {
		bc.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if len(cfg.Batch.ImageExtensions) > 0 {
		bc.ImageExtensions = cfg.Batch.ImageExtensions
	}
	if cmd.Flags().Changed("image-ext") {
		bc.ImageExtensions, _ = cmd.Flags().GetStringSlice("image-ext")
	}
	bc.OutputDir = cfg.Batch.OutputDir
	if cmd.Flags().Changed("output-dir") {
		bc.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	bc.ContinueOnError = cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("fail-fast") {
		failFast, _ := cmd.Flags().GetBool("fail-fast")
		bc.ContinueOnError = !failFast
	}

	bc.Format = cfg.Output.Format
	if cmd.Flags().Changed("format") {
		bc.Format, _ = cmd.Flags().GetString("format")
	}
	bc.OutputFile = cfg.Output.File
	if cmd.Flags().Changed("output") {
		bc.OutputFile, _ = cmd.Flags().GetString("output")
	}

	// File discovery and progress settings are CLI-only
	bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	bc.ShowProgress, _ = cmd.Flags().GetBool("progress")
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")
	bc.ProgressInterval, _ = cmd.Flags().GetDuration("progress-interval")

	return bc
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	bc := configToBatchConfig(cfg, cmd)

	result, err := batch.ProcessBatch(cmd.Context(), args, bc)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if bc.OutputFile == "" && bc.OutputDir == "" {
		out, err := result.FormatResults(bc.Format)
		if err != nil {
			return fmt.Errorf("failed to format results: %w", err)
		}
		if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else if err := result.SaveResults(bc.Format, bc.OutputFile, bc.OutputDir, bc.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		result.PrintStats(bc.Quiet)
	}
	return nil
}
