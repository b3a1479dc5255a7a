// Package pipeline runs the recognition cascade over every page of a source
// with a pool of workers and hands outcomes to a sink in page order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/lexocr/internal/cascade"
	"github.com/MeKo-Tech/lexocr/internal/document"
	"github.com/MeKo-Tech/lexocr/internal/recognizer"
)

// Source yields the pages of one run. Page must be safe for concurrent use.
type Source interface {
	Len() int
	Page(ctx context.Context, i int) (document.Page, error)
}

// Sink receives outcomes in ascending page order.
type Sink interface {
	WritePage(o PageOutcome) error
}

// Observer is notified of every released outcome and sink failure.
type Observer interface {
	ObserveOutcome(o PageOutcome)
	ObserveSinkError(o PageOutcome, err error)
}

// Config holds configuration for a pipeline run.
type Config struct {
	MaxWorkers int // Number of parallel workers (0 = runtime.NumCPU())
	Progress   ProgressCallback
	Observer   Observer
	Logger     *slog.Logger
}

// DefaultConfig returns sensible defaults for parallel processing.
func DefaultConfig() Config {
	return Config{MaxWorkers: runtime.NumCPU()}
}

// Pipeline binds an orchestrator to a recognizer factory.
type Pipeline struct {
	orch    *cascade.Orchestrator
	factory recognizer.Factory
	cfg     Config
	logger  *slog.Logger
}

// New creates a pipeline.
func New(orch *cascade.Orchestrator, factory recognizer.Factory, cfg Config) (*Pipeline, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	if factory == nil {
		return nil, errors.New("recognizer factory is required")
	}
	if cfg.MaxWorkers < 0 {
		return nil, fmt.Errorf("invalid worker count %d", cfg.MaxWorkers)
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	if cfg.Progress == nil {
		cfg.Progress = NoOpProgressCallback{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{orch: orch, factory: factory, cfg: cfg, logger: logger}, nil
}

// Workers returns the number of workers used for n pages.
func (p *Pipeline) Workers(n int) int {
	return max(1, min(p.cfg.MaxWorkers, n))
}

// pageResult carries one finished page from a worker to the collector.
type pageResult struct {
	outcome PageOutcome
	err     error
}

// Run processes every page of src and writes outcomes to sink in ascending
// page order. One recognizer per worker is created before any page starts;
// a construction failure aborts the run. Cancellation is honored between
// pages: started pages complete and are reported, others are skipped and
// Run returns ctx.Err(). Per-page failures and sink errors never stop the run.
func (p *Pipeline) Run(ctx context.Context, src Source, sink Sink) (Summary, error) {
	start := time.Now()
	var summary Summary

	n := src.Len()
	if n == 0 {
		return summary, nil
	}

	workers := p.Workers(n)
	pool, err := recognizer.NewPool(p.factory, workers)
	if err != nil {
		return summary, fmt.Errorf("failed to load recognizer: %w", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			p.logger.Warn("failed to close recognizers", "error", err)
		}
	}()

	p.logger.Debug("pipeline started", "pages", n, "workers", workers)
	p.cfg.Progress.OnStart(n)

	jobs := make(chan int, n)
	results := make(chan pageResult, n)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go p.worker(ctx, src, pool.Handle(w), jobs, results, &wg)
	}

	// Dispatch in page order; stop handing out pages once canceled.
	go func() {
		defer close(jobs)
		for i := range n {
			if ctx.Err() != nil {
				return
			}
			jobs <- i
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collector := NewCollector(n)
	done := 0
	for r := range results {
		done++
		if r.err != nil {
			p.cfg.Progress.OnError(r.outcome.Number, r.err)
		}
		p.cfg.Progress.OnProgress(done, n)

		released, err := collector.Add(r.outcome)
		if err != nil {
			p.logger.Error("dropping page outcome", "page", r.outcome.Number, "error", err)
			continue
		}
		p.release(released, sink, &summary)
	}
	p.release(collector.Drain(), sink, &summary)

	p.cfg.Progress.OnComplete()
	summary.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		p.logger.Warn("run canceled", "processed", summary.Pages, "pages", n)
		return summary, err
	}
	if missing := collector.Missing(); len(missing) > 0 {
		return summary, fmt.Errorf("pages not processed: %v", missing)
	}
	return summary, nil
}

// release writes outcomes to the sink and records them.
func (p *Pipeline) release(outcomes []PageOutcome, sink Sink, summary *Summary) {
	for _, o := range outcomes {
		summary.add(o)
		if p.cfg.Observer != nil {
			p.cfg.Observer.ObserveOutcome(o)
		}
		if err := sink.WritePage(o); err != nil {
			summary.SinkErrors++
			p.logger.Warn("failed to write page", "page", o.Number, "error", err)
			if p.cfg.Observer != nil {
				p.cfg.Observer.ObserveSinkError(o, err)
			}
		}
	}
}

// worker processes pages with its exclusively owned recognizer.
func (p *Pipeline) worker(
	ctx context.Context,
	src Source,
	rec recognizer.Recognizer,
	jobs <-chan int,
	results chan<- pageResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for i := range jobs {
		if ctx.Err() != nil {
			continue // drain without starting new pages
		}
		results <- p.processPage(ctx, src, rec, i)
	}
}

// processPage renders and recognizes page i. Once started it runs to
// completion regardless of cancellation.
func (p *Pipeline) processPage(ctx context.Context, src Source, rec recognizer.Recognizer, i int) pageResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	page, err := src.Page(ctx, i)
	page.Index = i
	if page.Number == 0 {
		page.Number = i + 1
	}
	if err != nil {
		p.logger.Warn("page render failed", "page", page.Number, "error", err)
		return pageResult{outcome: renderFailure(page, err, time.Since(start)), err: err}
	}

	ratio := page.ColumnRatio()
	res := p.orch.Run(ctx, rec, page.Image, ratio)
	o := newOutcome(page, ratio, res, time.Since(start))

	p.logger.Info("page processed",
		"page", o.Number,
		"status", o.Status.String(),
		"mode", o.Mode,
		"column_ratio", ratio,
		"valid_words", o.ValidWords,
		"attempts", o.Attempts,
		"duration_ms", o.DurationMs,
	)

	var pageErr error
	if o.Status == StatusEngineFailure {
		pageErr = fmt.Errorf("%w: page %d", recognizer.ErrEngine, o.Number)
	}
	return pageResult{outcome: o, err: pageErr}
}
