package cascade

import (
	"fmt"
	"time"
)

// Phase distinguishes the two passes over the threshold ladder.
type Phase int

const (
	// Unenhanced binarizes the page as rendered.
	Unenhanced Phase = iota
	// Enhanced binarizes the contrast-adjusted, sharpened page.
	Enhanced
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case Unenhanced:
		return "unenhanced"
	case Enhanced:
		return "enhanced"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Attempt is the outcome of one threshold in one phase.
type Attempt struct {
	Phase     Phase
	Index     int
	Threshold uint8
	Raw       string
	// Text is the filtered text: valid tokens in original order.
	Text       string
	ValidWords int
	Duration   time.Duration
	Err        error
}

// Enhanced reports whether the attempt ran on the enhanced image.
func (a Attempt) Enhanced() bool { return a.Phase == Enhanced }

// State is the orchestrator's position for a page. Exactly one of Trying,
// Accepted or Exhausted.
type State interface {
	state()
}

// Trying means the attempt at ladder position Index in Phase is next.
type Trying struct {
	Phase Phase
	Index int
}

// Accepted is terminal: Attempt met the acceptance bar.
type Accepted struct {
	Attempt Attempt
}

// Exhausted is terminal: no attempt met the acceptance bar. EngineFault is set
// when no attempt produced text at all because the engine kept failing.
type Exhausted struct {
	EngineFault bool
	// Err is the last engine or image error seen, if any.
	Err error
}

func (Trying) state()    {}
func (Accepted) state()  {}
func (Exhausted) state() {}
