package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MeKo-Tech/lexocr/internal/config"
	"github.com/MeKo-Tech/lexocr/internal/version"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
	// runID tags every log record of one invocation.
	runID string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lexocr",
	Short: "Adaptive OCR for scanned documents",
	Long: `lexocr extracts text from scanned PDFs and page images.

Each page is binarized at decreasing thresholds and recognized with Tesseract
until the recognized text contains enough dictionary words. Pages that fail
every threshold are retried after contrast enhancement and sharpening.

Examples:
  lexocr pdf scan.pdf
  lexocr pdf scan.pdf --pages 1-3 --format json -o scan.json
  lexocr image page1.png page2.png
  lexocr config init`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		setupLogging(cmd.ErrOrStderr(), globalConfig)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.Version = version.String()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/lexocr, /etc/lexocr)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
}

// initConfig reads the config file and environment into a fresh viper
// instance with the global flags bound.
func initConfig() error {
	v := viper.New()
	flags := rootCmd.PersistentFlags()
	for key, name := range map[string]string{
		"verbose":    "verbose",
		"log_level":  "log-level",
		"log_format": "log-format",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	configLoader = config.NewLoaderWithViper(v)
	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	globalConfig = cfg
	return nil
}

// setupLogging installs the default slog logger. Logs go to w (stderr)
// because stdout carries page text.
func setupLogging(w io.Writer, cfg *config.Config) {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	runID = uuid.NewString()
	slog.SetDefault(slog.New(handler).With("run_id", runID))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConfig returns the configuration of the current invocation.
func GetConfig() *config.Config {
	if globalConfig == nil {
		cfg := config.DefaultConfig()
		return &cfg
	}
	cfg := *globalConfig
	return &cfg
}
