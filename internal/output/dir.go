package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/lexocr/internal/pipeline"
)

// DirSink writes each page's text to its own file, page_0001.txt and so on.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// PageFileName returns the file name used for page number n.
func PageFileName(n int) string {
	return fmt.Sprintf("page_%04d.txt", n)
}

// WritePage writes the text of one page.
func (s *DirSink) WritePage(o pipeline.PageOutcome) error {
	path := filepath.Join(s.dir, PageFileName(o.Number))
	if err := os.WriteFile(path, []byte(o.Text+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write page file: %w", err)
	}
	return nil
}

// Close is a no-op; every page is written as it arrives.
func (s *DirSink) Close() error { return nil }

// Dir returns the output directory.
func (s *DirSink) Dir() string { return s.dir }
