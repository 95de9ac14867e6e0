package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/formscan/internal/imageio"
	"github.com/MeKo-Tech/formscan/internal/tokens"
)

// Process runs every stage over one document. Stage failures, including panics, are recorded
// in Result.Errors as "<Stage>: <message>" and do not stop later stages. Only context
// cancellation aborts the run.
func (p *Pipeline) Process(ctx context.Context, in Input) (*Result, error) {
	if p == nil || len(p.stages) == 0 {
		return nil, errors.New("pipeline not initialized")
	}
	start := time.Now()
	slog.Info("Processing form", "source", in.Source, "tokens", len(in.Tokens), "image", in.Image != nil)

	doc := &document{input: in}
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.runStage(ctx, s, doc)
	}
	if len(doc.errors) > 0 {
		slog.Warn("Errors encountered", "source", in.Source, "errors", doc.errors)
	}

	documentsProcessed.WithLabelValues(outcome(len(doc.errors) == 0)).Inc()
	documentDuration.Observe(time.Since(start).Seconds())

	return &Result{Metadata: doc.metadata, Form: doc.form, Errors: doc.errors}, nil
}

func (p *Pipeline) runStage(ctx context.Context, s stage, doc *document) {
	name := s.Name()
	slog.Debug("Running stage", "stage", name)
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return s.Process(ctx, doc)
	}()

	stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	stageRuns.WithLabelValues(name, outcome(err == nil)).Inc()
	if err != nil {
		slog.Error("Stage failed", "stage", name, "error", err)
		doc.errors = append(doc.errors, fmt.Sprintf("%s: %v", name, err))
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// LoadInput reads a token file and an optional image into an Input.
func LoadInput(tokensPath, imagePath string) (Input, error) {
	in := Input{Source: tokensPath}
	if tokensPath != "" {
		toks, err := tokens.LoadFile(tokensPath)
		if err != nil {
			return in, err
		}
		in.Tokens = toks
	}
	if imagePath != "" {
		img, err := imageio.Load(imagePath)
		if err != nil {
			return in, err
		}
		in.Image = img
		if in.Source == "" {
			in.Source = imagePath
		}
	}
	return in, nil
}
