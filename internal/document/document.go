// Package document turns PDFs and image files into pages for recognition:
// per-page geometry for layout analysis plus a rendered page image.
package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/lexocr/internal/layout"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrRender marks a page that could not be turned into an image.
	ErrRender = errors.New("page render failed")
	// ErrEncrypted is returned when a PDF needs a password that was not
	// given or did not match.
	ErrEncrypted = errors.New("document is encrypted")
)

// Page is one unit of work for the recognition cascade.
type Page struct {
	// Index is the 0-based position in the processing order.
	Index int
	// Number is the 1-based page number in the source document.
	Number int
	Name   string
	// Width of the page in the units of Glyphs (points for PDFs).
	Width  float64
	Glyphs []layout.Glyph
	Image  image.Image
}

// ColumnRatio returns the page's text spread.
func (p Page) ColumnRatio() float64 {
	return layout.ColumnRatio(p.Width, p.Glyphs)
}

// Options controls how a PDF is opened.
type Options struct {
	// Pages selects pages with a range like "1-3,5". Empty selects all.
	Pages    string
	Password string
	Renderer Renderer
	Logger   *slog.Logger
}

// Document is an opened PDF with a fixed page selection.
type Document struct {
	path      string
	readPath  string
	decrypted bool
	pageCount int
	pages     []int
	geometry  map[int]pageGeometry
	renderer  Renderer
	logger    *slog.Logger
}

// Open validates path, decrypts it when needed, counts its pages and reads
// the geometry of the selected pages.
func Open(path string, opts Options) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if opts.Renderer == nil {
		return nil, errors.New("no renderer configured")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Document{
		path:     path,
		readPath: path,
		renderer: opts.Renderer,
		logger:   logger.With("document", filepath.Base(path)),
	}

	if err := d.unlock(opts.Password); err != nil {
		return nil, err
	}

	count, err := api.PageCountFile(d.readPath)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to count pages of %s: %w", path, err)
	}
	d.pageCount = count

	d.pages, err = selectPages(opts.Pages, count)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.geometry = readGeometry(d.readPath, d.pages, d.logger)
	d.logger.Debug("document opened", "pages", count, "selected", len(d.pages), "encrypted", d.decrypted)
	return d, nil
}

// unlock replaces readPath with a decrypted temporary copy for encrypted files.
func (d *Document) unlock(password string) error {
	encrypted, err := IsEncrypted(d.path)
	if err != nil {
		return err
	}
	if !encrypted {
		return nil
	}
	if password == "" {
		return fmt.Errorf("%w: %s (use --password)", ErrEncrypted, d.path)
	}

	decrypted, err := Decrypt(d.path, password)
	if err != nil {
		return err
	}
	d.readPath = decrypted
	d.decrypted = true
	return nil
}

// Path returns the path the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the total number of pages in the file.
func (d *Document) PageCount() int { return d.pageCount }

// Len returns the number of selected pages.
func (d *Document) Len() int { return len(d.pages) }

// Page loads the i-th selected page and renders its image. On a render
// failure the returned page still carries its index, number and geometry.
func (d *Document) Page(ctx context.Context, i int) (Page, error) {
	if i < 0 || i >= len(d.pages) {
		return Page{}, fmt.Errorf("page index %d out of range [0,%d)", i, len(d.pages))
	}
	number := d.pages[i]
	g := d.geometry[number]
	p := Page{
		Index:  i,
		Number: number,
		Name:   fmt.Sprintf("%s#%d", filepath.Base(d.path), number),
		Width:  g.width,
		Glyphs: g.glyphs,
	}

	img, err := d.renderer.Render(ctx, d.readPath, number)
	if err != nil {
		if !errors.Is(err, ErrRender) {
			err = fmt.Errorf("%w: %w", ErrRender, err)
		}
		return p, fmt.Errorf("page %d: %w", number, err)
	}
	p.Image = img
	return p, nil
}

// Close removes the decrypted temporary copy, if any.
func (d *Document) Close() error {
	if !d.decrypted {
		return nil
	}
	d.decrypted = false
	if err := os.Remove(d.readPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove decrypted copy: %w", err)
	}
	return nil
}
