// Package recognizer defines the text recognition engine contract used by the
// cascade and a pool of exclusively owned engine handles.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/lexocr/internal/layout"
)

// ErrEngine marks failures inside the recognition engine, as opposed to
// recognized text of poor quality.
var ErrEngine = errors.New("recognition engine failure")

// Recognizer turns a page image into raw text. Instances are stateful and not
// safe for concurrent use; each cascade must own the instance it calls.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, mode layout.SegmentationMode) (string, error)
	Close() error
}

// Factory constructs a new, independently owned Recognizer.
type Factory func() (Recognizer, error)

// EngineError wraps err so that errors.Is(err, ErrEngine) holds.
func EngineError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrEngine, op, err)
}

// Pool holds one recognizer per worker. Handles are handed out by index and
// never shared between workers.
type Pool struct {
	handles []Recognizer
}

// NewPool creates size recognizers using factory. If any construction fails,
// the handles created so far are closed and the error is returned.
func NewPool(factory Factory, size int) (*Pool, error) {
	if factory == nil {
		return nil, errors.New("recognizer factory is nil")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid pool size %d", size)
	}

	p := &Pool{handles: make([]Recognizer, 0, size)}
	for i := range size {
		r, err := factory()
		if err == nil && r == nil {
			err = errors.New("factory returned nil recognizer")
		}
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to create recognizer %d: %w", i, err)
		}
		p.handles = append(p.handles, r)
	}
	return p, nil
}

// Size returns the number of handles in the pool.
func (p *Pool) Size() int { return len(p.handles) }

// Handle returns the recognizer owned by worker i.
func (p *Pool) Handle(i int) Recognizer { return p.handles[i] }

// Close closes every handle and joins their errors.
func (p *Pool) Close() error {
	var errs []error
	for _, h := range p.handles {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.handles = nil
	return errors.Join(errs...)
}
