package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/MeKo-Tech/lexocr/internal/pipeline"
)

var csvHeader = []string{"page", "name", "status", "threshold", "phase", "valid_words", "attempts", "mode", "text"}

// CSVSink writes one row per page. Rows are encoded in memory and written
// with a single call, so one failed row does not affect the next.
type CSVSink struct {
	w           io.Writer
	wroteHeader bool
}

// NewCSVSink creates a CSV sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

// WritePage writes the row of one page, preceded by the header on first use.
func (s *CSVSink) WritePage(o pipeline.PageOutcome) error {
	threshold := ""
	if o.Threshold != nil {
		threshold = strconv.Itoa(*o.Threshold)
	}
	row := []string{
		strconv.Itoa(o.Number),
		o.Name,
		o.Status.String(),
		threshold,
		o.Phase,
		strconv.Itoa(o.ValidWords),
		strconv.Itoa(o.Attempts),
		o.Mode,
		o.Text,
	}
	if err := s.writeRows(row); err != nil {
		return fmt.Errorf("failed to write page %d: %w", o.Number, err)
	}
	return nil
}

// Close writes the header if no page was written.
func (s *CSVSink) Close() error {
	if s.wroteHeader {
		return nil
	}
	return s.writeRows()
}

func (s *CSVSink) writeRows(rows ...[]string) error {
	if !s.wroteHeader {
		rows = append([][]string{csvHeader}, rows...)
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return err
	}
	s.wroteHeader = true
	return nil
}
