package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/lexocr/internal/cascade"
	"github.com/MeKo-Tech/lexocr/internal/config"
	"github.com/MeKo-Tech/lexocr/internal/lexicon"
	"github.com/MeKo-Tech/lexocr/internal/metrics"
	"github.com/MeKo-Tech/lexocr/internal/output"
	"github.com/MeKo-Tech/lexocr/internal/pipeline"
	"github.com/MeKo-Tech/lexocr/internal/recognizer"
	"github.com/MeKo-Tech/lexocr/internal/recognizer/tesseract"
	"github.com/spf13/cobra"
)

// newRecognizerFactory builds the engine factory; tests replace it.
var newRecognizerFactory = func(cfg config.Config) recognizer.Factory {
	return tesseract.NewFactory(cfg.ToTesseractConfig())
}

// addRecognitionFlags registers the flags shared by the pdf and image commands.
func addRecognitionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().String("output-dir", "", "also write one text file per page into this directory")
	cmd.Flags().IntP("workers", "w", 0, "number of parallel workers (0 = NumCPU)")
	cmd.Flags().Int("min-words", cascade.DefaultMinValidWords, "valid dictionary words needed to accept a page")
	cmd.Flags().IntSlice("thresholds", nil, "binarization thresholds, tried in order (default 180,150,128,100,70)")
	cmd.Flags().StringP("language", "l", "eng", "Tesseract language")
	cmd.Flags().String("tessdata", "", "Tesseract tessdata directory")
	cmd.Flags().String("affix", "", "hunspell affix (.aff) file")
	cmd.Flags().String("dict", "", "hunspell word list (.dic) file")
	cmd.Flags().StringSlice("extra-words", nil, "additional word list files, one word per line")
	cmd.Flags().Bool("progress", false, "show a progress bar on stderr")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the run")
}

// applyRecognitionFlags overrides cfg with the flags the user set.
func applyRecognitionFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	setString := func(flagName string, target *string) {
		if flags.Changed(flagName) {
			*target, _ = flags.GetString(flagName)
		}
	}
	setInt := func(flagName string, target *int) {
		if flags.Changed(flagName) {
			*target, _ = flags.GetInt(flagName)
		}
	}

	setString("format", &cfg.Output.Format)
	setString("output", &cfg.Output.File)
	setString("output-dir", &cfg.Output.Dir)
	setInt("workers", &cfg.Parallel.MaxWorkers)
	setInt("min-words", &cfg.Cascade.MinValidWords)
	setString("language", &cfg.Recognizer.Language)
	setString("tessdata", &cfg.Recognizer.TessdataPrefix)
	setString("affix", &cfg.Dictionary.AffixPath)
	setString("dict", &cfg.Dictionary.WordsPath)
	setString("metrics-file", &cfg.Metrics.Textfile)
	if flags.Changed("thresholds") {
		cfg.Cascade.Thresholds, _ = flags.GetIntSlice("thresholds")
	}
	if flags.Changed("extra-words") {
		extra, _ := flags.GetStringSlice("extra-words")
		cfg.Dictionary.ExtraWords = append(cfg.Dictionary.ExtraWords, extra...)
	}

	if flags.Changed("workers") && cfg.Parallel.MaxWorkers == 0 {
		cfg.Parallel.MaxWorkers = pipeline.DefaultConfig().MaxWorkers
	}
	return cfg.Validate()
}

// loadDictionary combines the hunspell dictionary with the extra word lists.
func loadDictionary(dc config.DictionaryConfig) (lexicon.Dictionary, error) {
	var union lexicon.Union
	if dc.AffixPath != "" || dc.WordsPath != "" {
		h, err := lexicon.LoadHunspell(dc.AffixPath, dc.WordsPath)
		if err != nil {
			return nil, err
		}
		union = append(union, h)
	}
	for _, path := range dc.ExtraWords {
		words, err := lexicon.LoadWordList(path)
		if err != nil {
			return nil, err
		}
		union = append(union, words)
	}

	switch len(union) {
	case 0:
		return nil, errors.New("no dictionary configured (set --affix and --dict, or --extra-words)")
	case 1:
		return union[0], nil
	}
	return union, nil
}

// runRecognition runs the cascade over src and writes outcomes to the
// configured sinks.
func runRecognition(cmd *cobra.Command, cfg *config.Config, src pipeline.Source, sourceName string) (pipeline.Summary, error) {
	logger := slog.Default().With("document", sourceName)

	dict, err := loadDictionary(cfg.Dictionary)
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("failed to load dictionary: %w", err)
	}

	cascadeCfg, err := cfg.ToCascadeConfig()
	if err != nil {
		return pipeline.Summary{}, err
	}
	recorder := metrics.New(cascadeCfg.MinValidWords)
	orch, err := cascade.New(cascadeCfg, dict, cascade.WithObserver(recorder), cascade.WithLogger(logger))
	if err != nil {
		return pipeline.Summary{}, err
	}

	pcfg := cfg.ToPipelineConfig()
	pcfg.Observer = recorder
	pcfg.Logger = logger
	progress := pipeline.MultiProgressCallback{pipeline.NewLogProgressCallback(logger, 10)}
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress {
		progress = append(progress, pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr()))
	}
	pcfg.Progress = progress

	p, err := pipeline.New(orch, newRecognizerFactory(*cfg), pcfg)
	if err != nil {
		return pipeline.Summary{}, err
	}

	sink, err := output.New(cfg.ToOutputOptions(sourceName), cmd.OutOrStdout())
	if err != nil {
		return pipeline.Summary{}, err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := p.Run(ctx, src, sink)
	closeErr := sink.Close()

	if cfg.Metrics.Textfile != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	logger.Info("run complete",
		"pages", summary.Pages,
		"accepted", summary.Accepted,
		"exhausted", summary.Exhausted,
		"engine_failures", summary.EngineFailures,
		"render_failures", summary.RenderFailures,
		"sink_errors", summary.SinkErrors,
		"duration", summary.Duration)

	if runErr == nil && closeErr == nil && cfg.Output.File != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Results written to %s\n", cfg.Output.File)
	}
	return summary, errors.Join(runErr, closeErr)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
