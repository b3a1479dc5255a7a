package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/lexocr/internal/cascade"
	"github.com/MeKo-Tech/lexocr/internal/document"
)

// SentinelRenderFailure replaces the text of a page that could not be rendered.
const SentinelRenderFailure = "[page could not be rendered]"

// Status is the final state of a page.
type Status int

const (
	// StatusAccepted means an attempt met the acceptance bar.
	StatusAccepted Status = iota
	// StatusExhausted means every attempt fell short of the acceptance bar.
	StatusExhausted
	// StatusEngineFailure means the recognition engine failed on every attempt.
	StatusEngineFailure
	// StatusRenderFailure means the page image could not be produced.
	StatusRenderFailure
)

var statusNames = [...]string{"accepted", "exhausted", "engine_failure", "render_failure"}

// String returns the string representation of the status.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if strings.EqualFold(name, string(text)) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown page status %q", text)
}

// PageOutcome is the reported result of one page. Text is never empty: pages
// that were not accepted carry a sentinel.
type PageOutcome struct {
	Index       int     `json:"index" yaml:"index"`
	Number      int     `json:"page" yaml:"page"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	Status      Status  `json:"status" yaml:"status"`
	Text        string  `json:"text" yaml:"text"`
	Mode        string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	ColumnRatio float64 `json:"column_ratio" yaml:"column_ratio"`
	// Threshold, Phase and Enhanced describe the accepted attempt.
	Threshold  *int   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Phase      string `json:"phase,omitempty" yaml:"phase,omitempty"`
	Enhanced   bool   `json:"enhanced" yaml:"enhanced"`
	ValidWords int    `json:"valid_words" yaml:"valid_words"`
	Attempts   int    `json:"attempts" yaml:"attempts"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

// Accepted reports whether the page produced accepted text.
func (o PageOutcome) Accepted() bool { return o.Status == StatusAccepted }

// newOutcome converts a cascade result into a page outcome.
func newOutcome(page document.Page, ratio float64, res cascade.Result, elapsed time.Duration) PageOutcome {
	o := PageOutcome{
		Index:       page.Index,
		Number:      page.Number,
		Name:        page.Name,
		Text:        res.Text(),
		Mode:        res.Mode.String(),
		ColumnRatio: ratio,
		Attempts:    res.Attempts,
		DurationMs:  elapsed.Milliseconds(),
	}

	switch s := res.State.(type) {
	case cascade.Accepted:
		th := int(s.Attempt.Threshold)
		o.Status = StatusAccepted
		o.Threshold = &th
		o.Phase = s.Attempt.Phase.String()
		o.Enhanced = s.Attempt.Enhanced()
		o.ValidWords = s.Attempt.ValidWords
	case cascade.Exhausted:
		o.Status = StatusExhausted
		if s.EngineFault {
			o.Status = StatusEngineFailure
		}
		if s.Err != nil {
			o.Error = s.Err.Error()
		}
	}
	return o
}

// renderFailure builds the outcome of a page whose image could not be produced.
func renderFailure(page document.Page, err error, elapsed time.Duration) PageOutcome {
	return PageOutcome{
		Index:      page.Index,
		Number:     page.Number,
		Name:       page.Name,
		Status:     StatusRenderFailure,
		Text:       SentinelRenderFailure,
		Error:      err.Error(),
		DurationMs: elapsed.Milliseconds(),
	}
}

// Summary counts page outcomes of a run.
type Summary struct {
	Pages          int           `json:"pages" yaml:"pages"`
	Accepted       int           `json:"accepted" yaml:"accepted"`
	Exhausted      int           `json:"exhausted" yaml:"exhausted"`
	EngineFailures int           `json:"engine_failures" yaml:"engine_failures"`
	RenderFailures int           `json:"render_failures" yaml:"render_failures"`
	SinkErrors     int           `json:"sink_errors" yaml:"sink_errors"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
}

func (s *Summary) add(o PageOutcome) {
	s.Pages++
	switch o.Status {
	case StatusAccepted:
		s.Accepted++
	case StatusExhausted:
		s.Exhausted++
	case StatusEngineFailure:
		s.EngineFailures++
	case StatusRenderFailure:
		s.RenderFailures++
	}
}

// Failed returns the number of pages without accepted text.
func (s Summary) Failed() int { return s.Pages - s.Accepted }
