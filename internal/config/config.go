package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/farcloser/primordium/fault"
	"github.com/pelletier/go-toml/v2"

	"github.com/farcloser/sonority"
	"github.com/farcloser/sonority/internal/normalize"
)

//go:embed sample_config.toml
var sampleConfig string

// Analyzer overrides the identity stamped into payloads.
type Analyzer struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Streaming configures the normalization predictions.
type Streaming struct {
	CeilingDbTP float64              `toml:"ceiling_dbtp"`
	Platforms   []normalize.Platform `toml:"platforms"`
}

// Output configures how the CLI prints results.
type Output struct {
	Format string `toml:"format"`
}

// Report configures batch reporting.
type Report struct {
	Workers int `toml:"workers"`
}

// Config is the sonority configuration file.
type Config struct {
	Analyzer  Analyzer  `toml:"analyzer"`
	Streaming Streaming `toml:"streaming"`
	Output    Output    `toml:"output"`
	Report    Report    `toml:"report"`
}

// DefaultConfigPath returns the absolute path of the per-user configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, normalizes and validates a configuration file. An explicit path must
// exist. Without one, the per-user file then ./sonority.toml are tried, and defaults apply
// when neither exists.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}

		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}

		if _, err := os.Stat(expanded); err != nil {
			return "", false, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
		}

		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}

		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	return defaultPath, false, nil
}

// Options converts the configuration into engine options.
func (c *Config) Options() sonority.Options {
	opts := sonority.DefaultOptions()
	opts.AnalyzerName = c.Analyzer.Name
	opts.AnalyzerVersion = c.Analyzer.Version
	opts.CeilingDbTP = c.Streaming.CeilingDbTP
	opts.Platforms = append([]normalize.Platform(nil), c.Streaming.Platforms...)

	return opts
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil { //nolint:gosec // config is not secret
		return fmt.Errorf("write sample config: %w", err)
	}

	return nil
}

func expandPath(pathValue string) (string, error) {
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}

		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}

	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}

	return absolute, nil
}
