package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// newTestLoader returns a loader on a fresh viper instance that reads no .env file.
func newTestLoader() *Loader {
	return NewLoader().WithDotEnv()
}

// chdir switches into a temporary working directory for the test.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	chdir(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Cascade, cfg.Cascade)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewLoader_InstancesDoNotShareState(t *testing.T) {
	dir := chdir(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(dir, "debug.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	first := newTestLoader()
	cfg, err := first.LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, path, first.GetConfigFileUsed())

	second := newTestLoader()
	cfg, err = second.Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, second.GetConfigFileUsed())
	assert.NotSame(t, first.GetViper(), second.GetViper())
	assert.NotSame(t, viper.GetViper(), first.GetViper())
}

func TestLoadWithFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	content := `
log_level: debug
cascade:
  thresholds: [200, 120]
  min_valid_words: 3
render:
  backend: embedded
output:
  format: yaml
  dir: pages
metrics:
  textfile: /tmp/lexocr.prom
dictionary:
  extra_words: [names.txt, terms.txt]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loader := newTestLoader()
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []int{200, 120}, cfg.Cascade.Thresholds)
	assert.Equal(t, 3, cfg.Cascade.MinValidWords)
	assert.Equal(t, "embedded", cfg.Render.Backend)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "pages", cfg.Output.Dir)
	assert.Equal(t, "/tmp/lexocr.prom", cfg.Metrics.Textfile)
	assert.Equal(t, []string{"names.txt", "terms.txt"}, cfg.Dictionary.ExtraWords)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultConfig().Render.DPI, cfg.Render.DPI)
	assert.Equal(t, path, loader.GetConfigFileUsed())
}

func TestLoadWithFile_Missing(t *testing.T) {
	_, err := newTestLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithFile_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cascade:\n  min_valid_words: 0\n"), 0o600))

	_, err := newTestLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")

	cfg, err := newTestLoader().LoadWithFileWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Cascade.MinValidWords)
}

func TestLoad_FindsConfigInWorkingDirectory(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lexocr.yaml"), []byte("log_format: text\n"), 0o600))

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("LEXOCR_CASCADE_MIN_VALID_WORDS", "7")
	t.Setenv("LEXOCR_RENDER_DPI", "150")
	t.Setenv("LEXOCR_LOG_LEVEL", "warn")

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cascade.MinValidWords)
	assert.Equal(t, 150, cfg.Render.DPI)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LEXOCR_RECOGNIZER_LANGUAGE=fra\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LEXOCR_RECOGNIZER_LANGUAGE") })

	cfg, err := NewLoaderWithViper(viper.New()).WithDotEnv(envFile).Load()
	require.NoError(t, err)
	assert.Equal(t, "fra", cfg.Recognizer.Language)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := chdir(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LEXOCR_RECOGNIZER_LANGUAGE=fra\n"), 0o600))
	t.Setenv("LEXOCR_RECOGNIZER_LANGUAGE", "ita")

	cfg, err := NewLoaderWithViper(viper.New()).WithDotEnv(envFile).Load()
	require.NoError(t, err)
	assert.Equal(t, "ita", cfg.Recognizer.Language)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexocr.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "cascade")
	assert.Contains(t, raw, "render")

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Cascade.Thresholds, cfg.Cascade.Thresholds)
}

func TestGetConfigSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join(xdg, "lexocr"))
	assert.Equal(t, "/etc/lexocr", paths[len(paths)-1])
}
