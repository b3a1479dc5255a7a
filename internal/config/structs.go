//nolint:lll
package config

// Config represents the complete configuration for lexocr. It is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Dictionary DictionaryConfig `mapstructure:"dictionary" yaml:"dictionary" json:"dictionary"`
	Render     RenderConfig     `mapstructure:"render" yaml:"render" json:"render"`
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`
	Cascade    CascadeConfig    `mapstructure:"cascade" yaml:"cascade" json:"cascade"`
	Parallel   ParallelConfig   `mapstructure:"parallel" yaml:"parallel" json:"parallel"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// DictionaryConfig locates the spelling dictionary.
type DictionaryConfig struct {
	AffixPath string `mapstructure:"affix_path" yaml:"affix_path" json:"affix_path"`
	WordsPath string `mapstructure:"words_path" yaml:"words_path" json:"words_path"`
	// ExtraWords lists plain word list files, one word per line.
	ExtraWords []string `mapstructure:"extra_words" yaml:"extra_words" json:"extra_words"`
}

// RenderConfig contains PDF page rendering settings.
type RenderConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend" json:"backend"`
	DPI          int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	PdftoppmPath string `mapstructure:"pdftoppm_path" yaml:"pdftoppm_path" json:"pdftoppm_path"`
	Password     string `mapstructure:"password" yaml:"password" json:"-"`
}

// RecognizerConfig contains recognition engine settings.
type RecognizerConfig struct {
	Language       string `mapstructure:"language" yaml:"language" json:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
}

// CascadeConfig contains the threshold ladder, acceptance bar and enhancement strength.
type CascadeConfig struct {
	Thresholds    []int   `mapstructure:"thresholds" yaml:"thresholds" json:"thresholds"`
	MinValidWords int     `mapstructure:"min_valid_words" yaml:"min_valid_words" json:"min_valid_words"`
	Contrast      float64 `mapstructure:"contrast" yaml:"contrast" json:"contrast"`
	SharpenSigma  float64 `mapstructure:"sharpen_sigma" yaml:"sharpen_sigma" json:"sharpen_sigma"`
}

// ParallelConfig contains parallel processing settings.
type ParallelConfig struct {
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`
}

// OutputConfig contains output settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
	Dir    string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// MetricsConfig contains metrics export settings.
type MetricsConfig struct {
	// Textfile is written in the Prometheus text format after each run.
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile"`
}
