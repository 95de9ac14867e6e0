package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ProcessBatch processes documents concurrently and returns results in input order.
// Stage failures stay inside each Result; the returned error is only set when ctx is
// cancelled, in which case unfinished entries are nil.
func (p *Pipeline) ProcessBatch(ctx context.Context, inputs []Input) ([]*Result, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no documents provided")
	}
	workers := p.cfg.Parallel.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	progress := p.cfg.Parallel.ProgressCallback
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	progress.OnStart(len(inputs))
	defer progress.OnComplete()

	results := make([]*Result, len(inputs))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := p.Process(gctx, in)
			if err != nil {
				progress.OnError(i, err)
				return err
			}
			results[i] = res
			if res.HasErrors() {
				progress.OnError(i, errors.New(res.Errors[0]))
			}
			progress.OnProgress(int(done.Add(1)), len(inputs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
