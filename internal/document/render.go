package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/lexocr/internal/imgproc"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// DefaultDPI is the rasterization resolution for scanned pages.
	DefaultDPI = 300

	BackendPdftoppm = "pdftoppm"
	BackendEmbedded = "embedded"
	// BackendAuto extracts the embedded scan and falls back to rasterizing.
	BackendAuto = "auto"
)

// Renderer turns a 1-based page of a PDF file into an image.
type Renderer interface {
	Render(ctx context.Context, path string, page int) (image.Image, error)
	Name() string
}

// RendererConfig selects and configures a backend.
type RendererConfig struct {
	Backend      string
	DPI          int
	PdftoppmPath string
}

// NewRenderer builds the backend named in cfg.
func NewRenderer(cfg RendererConfig) (Renderer, error) {
	pdftoppm := &PdftoppmRenderer{Binary: cfg.PdftoppmPath, DPI: cfg.DPI}
	switch strings.ToLower(cfg.Backend) {
	case "", BackendPdftoppm:
		return pdftoppm, nil
	case BackendEmbedded:
		return &EmbeddedRenderer{}, nil
	case BackendAuto:
		return FallbackRenderer{&EmbeddedRenderer{}, pdftoppm}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q (want %s, %s or %s)",
			cfg.Backend, BackendPdftoppm, BackendEmbedded, BackendAuto)
	}
}

// PdftoppmRenderer rasterizes pages with poppler's pdftoppm.
type PdftoppmRenderer struct {
	// Binary defaults to "pdftoppm" on PATH.
	Binary string
	// DPI defaults to DefaultDPI.
	DPI int
}

// Name implements Renderer.
func (r *PdftoppmRenderer) Name() string { return BackendPdftoppm }

// Render implements Renderer.
func (r *PdftoppmRenderer) Render(ctx context.Context, path string, page int) (image.Image, error) {
	bin := r.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	tempDir, err := os.MkdirTemp("", "lexocr-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	n := strconv.Itoa(page)
	prefix := filepath.Join(tempDir, "page")
	//nolint:gosec // G204: binary is operator configuration
	cmd := exec.CommandContext(ctx, bin, "-png", "-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-singlefile", path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%w: pdftoppm: %w: %s", ErrRender, err, msg)
		}
		return nil, fmt.Errorf("%w: pdftoppm: %w", ErrRender, err)
	}

	img, err := imgproc.LoadImage(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return img, nil
}

// EmbeddedRenderer returns the largest image embedded in a page, which for
// scanned documents is the page scan itself.
type EmbeddedRenderer struct{}

// Name implements Renderer.
func (r *EmbeddedRenderer) Name() string { return BackendEmbedded }

// Render implements Renderer.
func (r *EmbeddedRenderer) Render(ctx context.Context, path string, page int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "lexocr-extract-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(path, tempDir, []string{strconv.Itoa(page)}, conf); err != nil {
		return nil, fmt.Errorf("%w: failed to extract images: %w", ErrRender, err)
	}

	img, err := largestImage(tempDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return img, nil
}

// largestImage decodes every image in dir and returns the one with the most pixels.
func largestImage(dir string) (image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var best image.Image
	bestArea := 0
	for _, e := range entries {
		if e.IsDir() || !imgproc.IsSupportedImage(e.Name()) {
			continue
		}
		img, err := imgproc.LoadImage(filepath.Join(dir, e.Name()))
		if err != nil {
			// Skip unreadable images
			continue
		}
		if area := img.Bounds().Dx() * img.Bounds().Dy(); area > bestArea {
			best, bestArea = img, area
		}
	}
	if best == nil {
		return nil, errors.New("no embedded image on page")
	}
	return best, nil
}

// FallbackRenderer tries each renderer in order and returns the first image.
type FallbackRenderer []Renderer

// Name implements Renderer.
func (f FallbackRenderer) Name() string {
	names := make([]string, len(f))
	for i, r := range f {
		names[i] = r.Name()
	}
	return strings.Join(names, "+")
}

// Render implements Renderer.
func (f FallbackRenderer) Render(ctx context.Context, path string, page int) (image.Image, error) {
	var errs []error
	for _, r := range f {
		img, err := r.Render(ctx, path, page)
		if err == nil {
			return img, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	return nil, fmt.Errorf("%w: %w", ErrRender, errors.Join(errs...))
}
