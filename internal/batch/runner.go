package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/Rana718/querygraft/internal/descriptor"
	"github.com/schollz/progressbar/v3"
)

// Analyzer is the part of analyzer.Analyzer the runner needs.
type Analyzer interface {
	Analyze(ctx context.Context, raw string) (*descriptor.QueryDescriptor, error)
}

// Result pairs a query with its descriptor or the error that stopped it.
type Result struct {
	Query      *Query
	Descriptor *descriptor.QueryDescriptor
	Err        error
}

type Options struct {
	// Workers defaults to runtime.NumCPU and never exceeds the query count.
	Workers int
	// Progress draws a bar on ProgressWriter, or stderr when that is nil.
	Progress       bool
	ProgressWriter io.Writer
}

// Run analyzes queries with a bounded worker pool. Results come back in the
// order of queries regardless of completion order; a failed query does not
// stop the others. Run only returns an error when ctx is cancelled.
func Run(ctx context.Context, a Analyzer, queries []*Query, opts Options) ([]Result, error) {
	results := make([]Result, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(queries) {
		numWorkers = len(queries)
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = newProgressBar(len(queries), opts.ProgressWriter)
	}

	jobs := make(chan int, len(queries))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				q := queries[idx]
				res := Result{Query: q}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else {
					res.Descriptor, res.Err = a.Analyze(ctx, q.SQL)
					if res.Err != nil {
						res.Err = fmt.Errorf("%s (%s:%d): %w", q.Name, q.File, q.Line, res.Err)
					}
				}
				results[idx] = res
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	for i := range queries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if bar != nil {
		bar.Finish()
	}
	return results, ctx.Err()
}

func newProgressBar(total int, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Analyzing queries"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("queries"),
	)
}

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
