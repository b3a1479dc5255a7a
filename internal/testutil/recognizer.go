package testutil

import (
	"context"
	"image"
	"sync"

	"github.com/MeKo-Tech/lexocr/internal/layout"
	"github.com/MeKo-Tech/lexocr/internal/recognizer"
)

// Response is one scripted recognizer reply.
type Response struct {
	Text string
	Err  error
}

// Call records a single Recognize invocation.
type Call struct {
	Mode   layout.SegmentationMode
	Bounds image.Rectangle
}

// ScriptFunc decides the reply for the n-th call (0-based).
type ScriptFunc func(n int, img image.Image, mode layout.SegmentationMode) (string, error)

// ScriptedRecognizer is a deterministic recognizer.Recognizer for tests.
type ScriptedRecognizer struct {
	mu     sync.Mutex
	script ScriptFunc
	calls  []Call
	closed bool
}

var _ recognizer.Recognizer = (*ScriptedRecognizer)(nil)

// NewScriptedRecognizer replies with responses in order and repeats the last
// one once they run out. Without responses it always returns "".
func NewScriptedRecognizer(responses ...Response) *ScriptedRecognizer {
	return NewScriptFuncRecognizer(func(n int, _ image.Image, _ layout.SegmentationMode) (string, error) {
		if len(responses) == 0 {
			return "", nil
		}
		r := responses[min(n, len(responses)-1)]
		return r.Text, r.Err
	})
}

// NewScriptFuncRecognizer replies using fn.
func NewScriptFuncRecognizer(fn ScriptFunc) *ScriptedRecognizer {
	return &ScriptedRecognizer{script: fn}
}

// Recognize implements recognizer.Recognizer.
func (s *ScriptedRecognizer) Recognize(_ context.Context, img image.Image, mode layout.SegmentationMode) (string, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, Call{Mode: mode, Bounds: img.Bounds()})
	s.mu.Unlock()

	return s.script(n, img, mode)
}

// Close implements recognizer.Recognizer.
func (s *ScriptedRecognizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Calls returns a copy of the recorded calls.
func (s *ScriptedRecognizer) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns the number of Recognize invocations.
func (s *ScriptedRecognizer) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Closed reports whether Close was called.
func (s *ScriptedRecognizer) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// RecognizerFactory hands out a fresh recognizer per call built by fn and
// keeps every handle for later inspection.
type RecognizerFactory struct {
	mu      sync.Mutex
	fn      ScriptFunc
	handles []*ScriptedRecognizer
}

// NewRecognizerFactory creates a factory whose handles reply using fn.
func NewRecognizerFactory(fn ScriptFunc) *RecognizerFactory {
	return &RecognizerFactory{fn: fn}
}

// Factory returns the recognizer.Factory view.
func (f *RecognizerFactory) Factory() recognizer.Factory {
	return func() (recognizer.Recognizer, error) {
		r := NewScriptFuncRecognizer(f.fn)
		f.mu.Lock()
		f.handles = append(f.handles, r)
		f.mu.Unlock()
		return r, nil
	}
}

// Handles returns every handle created so far.
func (f *RecognizerFactory) Handles() []*ScriptedRecognizer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*ScriptedRecognizer(nil), f.handles...)
}

// TotalCalls sums Recognize invocations over all handles.
func (f *RecognizerFactory) TotalCalls() int {
	total := 0
	for _, h := range f.Handles() {
		total += h.CallCount()
	}
	return total
}
