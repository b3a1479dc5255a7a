package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/MeKo-Tech/lexocr/internal/pipeline"
)

// EndOfDocument is the trailer written when a text sink is closed.
const EndOfDocument = "--- End of Document ---"

// TextSink writes each page's text under a "--- Page N ---" banner.
// Every page is a single write to the underlying writer, so a failed page
// leaves later pages unaffected.
type TextSink struct {
	w      io.Writer
	closed bool
}

// NewTextSink creates a text sink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

// WritePage writes the banner and text of one page.
func (s *TextSink) WritePage(o pipeline.PageOutcome) error {
	if s.closed {
		return errors.New("text sink is closed")
	}
	if _, err := io.WriteString(s.w, fmt.Sprintf("\n--- Page %d ---\n\n%s\n", o.Number, o.Text)); err != nil {
		return fmt.Errorf("failed to write page %d: %w", o.Number, err)
	}
	return nil
}

// Close writes the end-of-document trailer.
func (s *TextSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if _, err := io.WriteString(s.w, "\n"+EndOfDocument+"\n"); err != nil {
		return fmt.Errorf("failed to write document trailer: %w", err)
	}
	return nil
}
