// Package output writes page outcomes as text, JSON, YAML, CSV or one file per
// page.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MeKo-Tech/lexocr/internal/pipeline"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatCSV}

// Sink receives page outcomes in page order. Close flushes buffered output and
// releases files the sink opened itself.
type Sink interface {
	WritePage(o pipeline.PageOutcome) error
	Close() error
}

// Options selects and configures the sinks of a run.
type Options struct {
	Format string
	// File receives the formatted output. Empty means the stdout writer.
	File string
	// Dir additionally receives one text file per page.
	Dir string
	// Source is the input being recognized; it is recorded in structured output.
	Source string
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if slices.Contains(Formats, format) {
		return nil
	}
	return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(Formats, ", "))
}

// New builds the sink for opts. Formatted output goes to opts.File, or to
// stdout when no file is set.
func New(opts Options, stdout io.Writer) (Sink, error) {
	format := opts.Format
	if format == "" {
		format = FormatText
	}
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	var sinks MultiSink
	if opts.Dir != "" {
		dir, err := NewDirSink(opts.Dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, dir)
	}

	w := stdout
	var closer io.Closer
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				_ = sinks.Close()
				return nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(opts.File)
		if err != nil {
			_ = sinks.Close()
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		w, closer = f, f
	}

	var formatted Sink
	switch format {
	case FormatJSON:
		formatted = NewJSONSink(w, opts.Source)
	case FormatYAML:
		formatted = NewYAMLSink(w, opts.Source)
	case FormatCSV:
		formatted = NewCSVSink(w)
	default:
		formatted = NewTextSink(w)
	}
	if closer != nil {
		formatted = &closingSink{Sink: formatted, closer: closer}
	}

	if len(sinks) == 0 {
		return formatted, nil
	}
	return append(sinks, formatted), nil
}

// closingSink closes an owned file after the wrapped sink has flushed.
type closingSink struct {
	Sink
	closer io.Closer
}

func (c *closingSink) Close() error {
	return errors.Join(c.Sink.Close(), c.closer.Close())
}

// MultiSink fans every outcome out to several sinks.
type MultiSink []Sink

// WritePage writes o to every sink, even after one of them fails.
func (m MultiSink) WritePage(o pipeline.PageOutcome) error {
	var errs []error
	for _, s := range m {
		if err := s.WritePage(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
