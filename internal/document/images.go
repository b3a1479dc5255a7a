package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/lexocr/internal/imgproc"
)

// DiscoveryOptions controls which files an ImageSource picks up from directories.
type DiscoveryOptions struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// ImageSource serves image files as pages. Image pages carry no glyphs, so
// their column ratio is 0.
type ImageSource struct {
	files []string
}

// NewImageSource expands files and directories into a sorted list of images.
// Explicit files must have a supported extension; directories contribute
// only supported files.
func NewImageSource(args []string, opts DiscoveryOptions) (*ImageSource, error) {
	files, err := discoverImageFiles(args, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported image files found")
	}
	return &ImageSource{files: files}, nil
}

// Files returns the discovered files in processing order.
func (s *ImageSource) Files() []string { return append([]string(nil), s.files...) }

// Len returns the number of images.
func (s *ImageSource) Len() int { return len(s.files) }

// Page decodes the i-th image.
func (s *ImageSource) Page(ctx context.Context, i int) (Page, error) {
	if i < 0 || i >= len(s.files) {
		return Page{}, fmt.Errorf("page index %d out of range [0,%d)", i, len(s.files))
	}
	p := Page{Index: i, Number: i + 1, Name: s.files[i]}
	if err := ctx.Err(); err != nil {
		return p, err
	}

	img, err := imgproc.LoadImage(s.files[i])
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrRender, err)
	}
	p.Image = img
	p.Width = float64(img.Bounds().Dx())
	return p, nil
}

// Close implements the page source contract; images hold no resources.
func (s *ImageSource) Close() error { return nil }

// discoverImageFiles finds all image files matching the given patterns.
func discoverImageFiles(args []string, opts DiscoveryOptions) ([]string, error) {
	var imageFiles []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			imageFiles = append(imageFiles, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			files, err := discoverInDirectory(arg, opts)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
			continue
		}

		if !imgproc.IsSupportedImage(arg) {
			return nil, fmt.Errorf("unsupported image format: %s", arg)
		}
		if shouldIncludeFile(arg, opts.IncludePatterns, opts.ExcludePatterns) {
			add(arg)
		}
	}

	return imageFiles, nil
}

// discoverInDirectory lists supported images in dir in lexical order.
func discoverInDirectory(dir string, opts DiscoveryOptions) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !opts.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if imgproc.IsSupportedImage(path) && shouldIncludeFile(path, opts.IncludePatterns, opts.ExcludePatterns) {
			files = append(files, path)
		}

		return nil
	}

	if err := filepath.Walk(dir, walkFn); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// shouldIncludeFile determines if a file should be included based on include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}

	// If no include patterns, include all (that aren't excluded)
	if len(includePatterns) == 0 {
		return true
	}

	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks if a file's base name matches any of the given patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
