package phone

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// chunkSize is the number of records handed to one goroutine at a time.
const chunkSize = 512

// ProcessParallel is Process spread over at most workers goroutines.
// Records are processed in chunks and written back by index, so the output
// order is identical to Process. It stops early if ctx is cancelled.
func ProcessParallel(ctx context.Context, records []Record, opts Options, workers int) (*Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 || len(records) <= chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Process(records, opts), nil
	}

	type outcome struct {
		row     ValidRow
		rejects []RejectRow
	}
	outcomes := make([]outcome, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(records); start += chunkSize {
		end := min(start+chunkSize, len(records))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				row, rejects := ProcessRecord(records[i], opts)
				outcomes[i] = outcome{row: row, rejects: rejects}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Records: len(records)}
	for _, o := range outcomes {
		res.add(o.row, o.rejects, opts)
	}
	return res, nil
}
