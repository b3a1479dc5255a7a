package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "lexocr"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "LEXOCR"

	// DotEnvFile is loaded from the working directory before the environment is read.
	DotEnvFile = ".env"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v      *viper.Viper
	dotEnv []string
}

// NewLoader creates a loader on its own viper instance. Loaders never share
// config file or override state.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader on v.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v, dotEnv: []string{DotEnvFile}}
}

// WithDotEnv replaces the .env files loaded before the environment is read.
func (l *Loader) WithDotEnv(files ...string) *Loader {
	l.dotEnv = files
	return l
}

// Load loads configuration from the search paths, environment variables and
// defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile loads configuration from configFile, or from the search paths
// when configFile is empty, and validates it.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation loads configuration without validating it.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}
	l.setupEnvironmentVariables()
	l.setDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
		if err := l.v.ReadInConfig(); err != nil {
			// A missing config file is fine; defaults and env vars apply.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// GetResolvedConfig returns the current resolved settings for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// loadDotEnv loads the configured .env files that exist. Variables already
// set in the environment win.
func (l *Loader) loadDotEnv() error {
	var files []string
	for _, f := range l.dotEnv {
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("error loading %s: %w", strings.Join(files, ", "), err)
	}
	return nil
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("log_format", defaults.LogFormat)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("dictionary.affix_path", defaults.Dictionary.AffixPath)
	l.v.SetDefault("dictionary.words_path", defaults.Dictionary.WordsPath)
	l.v.SetDefault("dictionary.extra_words", defaults.Dictionary.ExtraWords)

	l.v.SetDefault("render.backend", defaults.Render.Backend)
	l.v.SetDefault("render.dpi", defaults.Render.DPI)
	l.v.SetDefault("render.pdftoppm_path", defaults.Render.PdftoppmPath)
	l.v.SetDefault("render.password", defaults.Render.Password)

	l.v.SetDefault("recognizer.language", defaults.Recognizer.Language)
	l.v.SetDefault("recognizer.tessdata_prefix", defaults.Recognizer.TessdataPrefix)

	l.v.SetDefault("cascade.thresholds", defaults.Cascade.Thresholds)
	l.v.SetDefault("cascade.min_valid_words", defaults.Cascade.MinValidWords)
	l.v.SetDefault("cascade.contrast", defaults.Cascade.Contrast)
	l.v.SetDefault("cascade.sharpen_sigma", defaults.Cascade.SharpenSigma)

	l.v.SetDefault("parallel.max_workers", defaults.Parallel.MaxWorkers)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.file", defaults.Output.File)
	l.v.SetDefault("output.dir", defaults.Output.Dir)

	l.v.SetDefault("metrics.textfile", defaults.Metrics.Textfile)
}

// GenerateDefaultConfigFile writes the default configuration to filename.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	loader := NewLoader()
	loader.setDefaults()
	if err := loader.v.WriteConfigAs(filename); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if homeErr == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	return append(paths, filepath.Join("/etc", ConfigFileName))
}
