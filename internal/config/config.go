package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/lexocr/internal/cascade"
	"github.com/MeKo-Tech/lexocr/internal/document"
	"github.com/MeKo-Tech/lexocr/internal/imgproc"
	"github.com/MeKo-Tech/lexocr/internal/output"
	"github.com/MeKo-Tech/lexocr/internal/pipeline"
	"github.com/MeKo-Tech/lexocr/internal/recognizer/tesseract"
)

// Default hunspell dictionary locations on Debian-based systems.
const (
	DefaultAffixPath = "/usr/share/hunspell/en_US.aff"
	DefaultWordsPath = "/usr/share/hunspell/en_US.dic"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
	validBackends   = []string{document.BackendPdftoppm, document.BackendEmbedded, document.BackendAuto}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	cascadeDefaults := cascade.DefaultConfig()
	return Config{
		LogLevel:  "info",
		LogFormat: "json",
		Dictionary: DictionaryConfig{
			AffixPath:  DefaultAffixPath,
			WordsPath:  DefaultWordsPath,
			ExtraWords: []string{},
		},
		Render: RenderConfig{
			Backend: document.BackendPdftoppm,
			DPI:     document.DefaultDPI,
		},
		Recognizer: RecognizerConfig{
			Language: tesseract.DefaultConfig().Language,
		},
		Cascade: CascadeConfig{
			Thresholds:    cascadeDefaults.Ladder.Ints(),
			MinValidWords: cascadeDefaults.MinValidWords,
			Contrast:      cascadeDefaults.Enhancer.Contrast,
			SharpenSigma:  cascadeDefaults.Enhancer.Sigma,
		},
		Parallel: ParallelConfig{
			MaxWorkers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format: output.FormatText,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.LogFormat, strings.Join(validLogFormats, ", "))
	}

	if c.Output.Format != "" {
		if err := output.ValidateFormat(c.Output.Format); err != nil {
			return err
		}
	}

	if !slices.Contains(validBackends, c.Render.Backend) {
		return fmt.Errorf("invalid render backend: %s (must be one of: %s)", c.Render.Backend, strings.Join(validBackends, ", "))
	}
	if c.Render.DPI <= 0 {
		return fmt.Errorf("invalid render dpi: %d (must be positive)", c.Render.DPI)
	}

	if c.Recognizer.Language == "" {
		return fmt.Errorf("recognizer language must not be empty")
	}

	if c.Parallel.MaxWorkers <= 0 {
		return fmt.Errorf("invalid parallel max workers: %d (must be positive)", c.Parallel.MaxWorkers)
	}

	cc, err := c.ToCascadeConfig()
	if err != nil {
		return err
	}
	if err := cc.Validate(); err != nil {
		return fmt.Errorf("invalid cascade configuration: %w", err)
	}
	return nil
}

// ToCascadeConfig converts the config to the cascade configuration.
func (c *Config) ToCascadeConfig() (cascade.Config, error) {
	ladder, err := imgproc.NewLadder(c.Cascade.Thresholds)
	if err != nil {
		return cascade.Config{}, fmt.Errorf("invalid cascade thresholds: %w", err)
	}
	return cascade.Config{
		Ladder:        ladder,
		MinValidWords: c.Cascade.MinValidWords,
		Enhancer: imgproc.Enhancer{
			Contrast: c.Cascade.Contrast,
			Sigma:    c.Cascade.SharpenSigma,
		},
	}, nil
}

// ToPipelineConfig converts the config to the pipeline configuration. Progress,
// observer and logger are left for the caller.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	if c.Parallel.MaxWorkers > 0 {
		cfg.MaxWorkers = c.Parallel.MaxWorkers
	}
	return cfg
}

// ToRendererConfig converts the config to the renderer configuration.
func (c *Config) ToRendererConfig() document.RendererConfig {
	return document.RendererConfig{
		Backend:      c.Render.Backend,
		DPI:          c.Render.DPI,
		PdftoppmPath: c.Render.PdftoppmPath,
	}
}

// ToTesseractConfig converts the config to the engine configuration.
func (c *Config) ToTesseractConfig() tesseract.Config {
	return tesseract.Config{
		Language:       c.Recognizer.Language,
		TessdataPrefix: c.Recognizer.TessdataPrefix,
		DPI:            c.Render.DPI,
	}
}

// ToOutputOptions converts the config to sink options for source.
func (c *Config) ToOutputOptions(source string) output.Options {
	return output.Options{
		Format: c.Output.Format,
		File:   c.Output.File,
		Dir:    c.Output.Dir,
		Source: source,
	}
}
