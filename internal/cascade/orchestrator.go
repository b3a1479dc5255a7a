// Package cascade runs the adaptive recognition cascade for a single page:
// binarize at each ladder threshold, recognize, filter lexically, accept the
// first result with enough valid words, and fall back to an enhanced image.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/lexocr/internal/imgproc"
	"github.com/MeKo-Tech/lexocr/internal/layout"
	"github.com/MeKo-Tech/lexocr/internal/lexicon"
	"github.com/MeKo-Tech/lexocr/internal/recognizer"
)

const (
	// SentinelInsufficient replaces the text of a page whose attempts were all
	// below the acceptance bar.
	SentinelInsufficient = "[no text of sufficient quality recognized on this page]"
	// SentinelEngineFailure replaces the text of a page on which the
	// recognition engine failed for every attempt.
	SentinelEngineFailure = "[recognition engine failed on this page]"

	// DefaultMinValidWords is the default acceptance bar.
	DefaultMinValidWords = 5
)

// Config controls the cascade.
type Config struct {
	Ladder        imgproc.Ladder
	MinValidWords int
	Enhancer      imgproc.Enhancer
}

// DefaultConfig returns the default ladder, acceptance bar and enhancer.
func DefaultConfig() Config {
	return Config{
		Ladder:        append(imgproc.Ladder(nil), imgproc.DefaultLadder...),
		MinValidWords: DefaultMinValidWords,
		Enhancer:      imgproc.DefaultEnhancer(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Ladder.Validate(); err != nil {
		return err
	}
	if c.MinValidWords < 1 {
		return fmt.Errorf("min valid words must be at least 1, got %d", c.MinValidWords)
	}
	if c.Enhancer.Sigma <= 0 {
		return fmt.Errorf("sharpen sigma must be positive, got %v", c.Enhancer.Sigma)
	}
	if c.Enhancer.Contrast < -100 || c.Enhancer.Contrast > 100 {
		return fmt.Errorf("contrast must be in [-100, 100], got %v", c.Enhancer.Contrast)
	}
	return nil
}

// Observer receives every attempt once it finished.
type Observer interface {
	ObserveAttempt(a Attempt)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(a Attempt)

// ObserveAttempt implements Observer.
func (f ObserverFunc) ObserveAttempt(a Attempt) { f(a) }

// Result is the terminal state of a page's cascade.
type Result struct {
	State    State
	Mode     layout.SegmentationMode
	Attempts int
}

// Accepted returns the accepted attempt, if any.
func (r Result) Accepted() (Attempt, bool) {
	a, ok := r.State.(Accepted)
	return a.Attempt, ok
}

// EngineFault reports whether the page exhausted because the engine failed.
func (r Result) EngineFault() bool {
	e, ok := r.State.(Exhausted)
	return ok && e.EngineFault
}

// Text returns the accepted text or the matching sentinel.
func (r Result) Text() string {
	switch s := r.State.(type) {
	case Accepted:
		return s.Attempt.Text
	case Exhausted:
		if s.EngineFault {
			return SentinelEngineFailure
		}
	}
	return SentinelInsufficient
}

// Orchestrator runs the cascade. It holds only read-only state and may be
// shared by concurrent workers as long as each passes its own recognizer.
type Orchestrator struct {
	cfg      Config
	dict     lexicon.Dictionary
	observer Observer
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers an attempt observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an orchestrator validating lexically against dict.
func New(cfg Config, dict lexicon.Dictionary, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cascade config: %w", err)
	}
	if dict == nil {
		return nil, errors.New("dictionary is required")
	}
	o := &Orchestrator{
		cfg:    cfg,
		dict:   dict,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Config returns the orchestrator's configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Run drives the cascade for one page image with the given column ratio. The
// recognizer must be owned by the caller for the duration of the call. Run
// does not stop on ctx cancellation; a started page always completes.
func (o *Orchestrator) Run(ctx context.Context, rec recognizer.Recognizer, img image.Image, ratio float64) Result {
	p := &pageRun{
		o:         o,
		ctx:       context.WithoutCancel(ctx),
		rec:       rec,
		img:       img,
		mode:      layout.SelectMode(ratio),
		allFailed: true,
	}

	gray, err := imgproc.ToGray(img)
	if err != nil {
		o.logger.Warn("page image unusable", "error", err)
		return Result{State: Exhausted{EngineFault: true, Err: err}, Mode: p.mode}
	}
	p.sources[Unenhanced] = gray

	var state State = Trying{Phase: Unenhanced}
	for {
		t, ok := state.(Trying)
		if !ok {
			break
		}
		state = p.step(t)
	}

	return Result{State: state, Mode: p.mode, Attempts: p.attempts}
}

// pageRun is the mutable bookkeeping of a single Run.
type pageRun struct {
	o    *Orchestrator
	ctx  context.Context
	rec  recognizer.Recognizer
	img  image.Image
	mode layout.SegmentationMode

	sources    [2]*image.Gray
	enhanceErr error

	attempts  int
	allFailed bool
	lastErr   error
}

// step performs the attempt t names and returns the next state.
func (p *pageRun) step(t Trying) State {
	src, err := p.source(t.Phase)
	if err != nil {
		// Without an enhanced image the enhanced phase cannot produce text.
		return p.exhausted()
	}

	a := p.attempt(t, src)
	p.attempts++
	if p.o.observer != nil {
		p.o.observer.ObserveAttempt(a)
	}

	if a.Err != nil {
		p.lastErr = a.Err
		p.o.logger.Debug("recognition attempt failed",
			"phase", a.Phase.String(), "threshold", a.Threshold, "error", a.Err)
	} else {
		p.allFailed = false
		p.o.logger.Debug("recognition attempt",
			"phase", a.Phase.String(), "threshold", a.Threshold,
			"valid_words", a.ValidWords, "mode", p.mode.String())
		if a.ValidWords >= p.o.cfg.MinValidWords {
			return Accepted{Attempt: a}
		}
	}

	return p.next(t)
}

func (p *pageRun) next(t Trying) State {
	switch {
	case t.Index+1 < len(p.o.cfg.Ladder):
		return Trying{Phase: t.Phase, Index: t.Index + 1}
	case t.Phase == Unenhanced:
		return Trying{Phase: Enhanced}
	default:
		return p.exhausted()
	}
}

func (p *pageRun) exhausted() State {
	return Exhausted{EngineFault: p.allFailed, Err: p.lastErr}
}

// source returns the grayscale image for phase, enhancing at most once.
func (p *pageRun) source(phase Phase) (*image.Gray, error) {
	if phase == Unenhanced || p.sources[Enhanced] != nil {
		return p.sources[phase], nil
	}
	if p.enhanceErr != nil {
		return nil, p.enhanceErr
	}

	enhanced, err := p.o.cfg.Enhancer.Enhance(p.img)
	if err == nil {
		p.sources[Enhanced], err = imgproc.ToGray(enhanced)
	}
	if err != nil {
		p.enhanceErr = err
		p.lastErr = err
		p.o.logger.Warn("image enhancement failed", "error", err)
		return nil, err
	}
	return p.sources[Enhanced], nil
}

func (p *pageRun) attempt(t Trying, src *image.Gray) Attempt {
	threshold := p.o.cfg.Ladder[t.Index]
	a := Attempt{Phase: t.Phase, Index: t.Index, Threshold: threshold}

	start := time.Now()
	bin, err := imgproc.Binarize(src, threshold)
	if err != nil {
		a.Err = err
		a.Duration = time.Since(start)
		return a
	}

	raw, err := p.rec.Recognize(p.ctx, bin, p.mode)
	a.Duration = time.Since(start)
	if err != nil {
		a.Err = err
		return a
	}

	res := lexicon.Filter(raw, p.o.dict)
	a.Raw = raw
	a.Text = res.Text
	a.ValidWords = res.Count
	return a
}
