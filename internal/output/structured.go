package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MeKo-Tech/lexocr/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Document is the structured form of a run's output.
type Document struct {
	Source    string                 `json:"source,omitempty" yaml:"source,omitempty"`
	Generated time.Time              `json:"generated" yaml:"generated"`
	Pages     []pipeline.PageOutcome `json:"pages" yaml:"pages"`
}

// documentSink collects pages and encodes the whole document on Close.
type documentSink struct {
	w      io.Writer
	doc    Document
	encode func(io.Writer, Document) error
	closed bool
	now    func() time.Time
}

func (s *documentSink) WritePage(o pipeline.PageOutcome) error {
	if s.closed {
		return errors.New("sink is closed")
	}
	s.doc.Pages = append(s.doc.Pages, o)
	return nil
}

func (s *documentSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.doc.Pages == nil {
		s.doc.Pages = []pipeline.PageOutcome{}
	}
	s.doc.Generated = s.now().UTC()
	return s.encode(s.w, s.doc)
}

// NewJSONSink creates a sink that writes an indented JSON document on Close.
func NewJSONSink(w io.Writer, source string) Sink {
	return &documentSink{
		w:   w,
		doc: Document{Source: source},
		now: time.Now,
		encode: func(w io.Writer, d Document) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(d); err != nil {
				return fmt.Errorf("failed to encode JSON output: %w", err)
			}
			return nil
		},
	}
}

// NewYAMLSink creates a sink that writes a YAML document on Close.
func NewYAMLSink(w io.Writer, source string) Sink {
	return &documentSink{
		w:   w,
		doc: Document{Source: source},
		now: time.Now,
		encode: func(w io.Writer, d Document) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(d); err != nil {
				return fmt.Errorf("failed to encode YAML output: %w", err)
			}
			return enc.Close()
		},
	}
}
