// Package tesseract implements recognizer.Recognizer on top of the Tesseract
// engine via gosseract. It requires libtesseract and language data to be
// installed. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
package tesseract

import (
	"context"
	"fmt"
	"image"
	"strconv"

	"github.com/MeKo-Tech/lexocr/internal/imgproc"
	"github.com/MeKo-Tech/lexocr/internal/layout"
	"github.com/MeKo-Tech/lexocr/internal/recognizer"
	"github.com/otiai10/gosseract/v2"
)

// Config holds engine settings shared by every handle a factory creates.
type Config struct {
	Language       string
	TessdataPrefix string
	// DPI is passed as user_defined_dpi when positive.
	DPI       int
	Variables map[string]string
}

// DefaultConfig returns the English engine configuration.
func DefaultConfig() Config {
	return Config{Language: "eng"}
}

// Recognizer wraps one gosseract client.
type Recognizer struct {
	client *gosseract.Client
}

// New creates a Tesseract-backed recognizer.
// The recognizer should be closed when no longer needed to release resources.
func New(cfg Config) (*Recognizer, error) {
	client := gosseract.NewClient()

	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set language %q: %w", lang, err)
	}
	if cfg.DPI > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(cfg.DPI)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range cfg.Variables {
		if err := client.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set variable %s: %w", k, err)
		}
	}

	return &Recognizer{client: client}, nil
}

// NewFactory returns a factory producing independent recognizers for cfg.
func NewFactory(cfg Config) recognizer.Factory {
	return func() (recognizer.Recognizer, error) {
		return New(cfg)
	}
}

// Recognize runs the engine on img with the page segmentation mode matching mode.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image, mode layout.SegmentationMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := imgproc.EncodePNG(img)
	if err != nil {
		return "", recognizer.EngineError("encode", err)
	}
	if err := r.client.SetPageSegMode(PageSegMode(mode)); err != nil {
		return "", recognizer.EngineError("set page segmentation mode", err)
	}
	if err := r.client.SetImageFromBytes(data); err != nil {
		return "", recognizer.EngineError("set image", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return "", recognizer.EngineError("recognize text", err)
	}
	return text, nil
}

// Close releases the engine.
func (r *Recognizer) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

// PageSegMode maps a segmentation mode to Tesseract's page segmentation mode.
func PageSegMode(mode layout.SegmentationMode) gosseract.PageSegMode {
	if mode == layout.SingleBlock {
		return gosseract.PSM_SINGLE_BLOCK
	}
	return gosseract.PSM_AUTO_OSD
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}
