// Package batch structures many forms in one run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/formscan/internal/pipeline"
)

// ProcessBatch discovers documents under paths and structures them concurrently.
func ProcessBatch(ctx context.Context, paths []string, config *Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	jobs, err := discoverJobs(paths, config, config.Pipeline.EnableRecognizer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}
	if len(jobs) == 0 {
		return nil, errors.New("no documents found")
	}

	inputs, sources, failed, err := loadInputs(jobs, config.ContinueOnError)
	if err != nil {
		return nil, err
	}

	var progress pipeline.ProgressCallback
	if config.ShowProgress && !config.Quiet {
		progress = pipeline.NewLogProgressCallback(config.ProgressInterval)
	}

	pl, err := pipeline.NewBuilderWithConfig(config.Pipeline).
		WithParallelWorkers(config.Workers).
		WithProgressCallback(progress).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			slog.Error("Error closing pipeline", "error", err)
		}
	}()

	result := &Result{
		Results:     make([]*pipeline.Result, len(jobs)),
		Sources:     sources,
		Failed:      failed,
		WorkerCount: pl.Config().Parallel.MaxWorkers,
	}
	if len(inputs) == 0 {
		return result, nil
	}

	start := time.Now()
	results, err := pl.ProcessBatch(ctx, inputs)
	result.Duration = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	// Place results back at their job index; failed loads keep a nil slot.
	next := 0
	for i := range jobs {
		if _, bad := failed[i]; bad {
			continue
		}
		result.Results[i] = results[next]
		next++
	}
	return result, nil
}

func loadInputs(jobs []Job, continueOnError bool) ([]pipeline.Input, []string, map[int]error, error) {
	inputs := make([]pipeline.Input, 0, len(jobs))
	sources := make([]string, len(jobs))
	failed := make(map[int]error)
	for i, job := range jobs {
		sources[i] = job.Source()
		in, err := pipeline.LoadInput(job.TokensPath, job.ImagePath)
		if err != nil {
			if !continueOnError {
				return nil, nil, nil, fmt.Errorf("failed to load %s: %w", job.Source(), err)
			}
			slog.Warn("Skipping document", "source", job.Source(), "error", err)
			failed[i] = err
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, sources, failed, nil
}
