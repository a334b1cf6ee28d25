package config

import (
	"github.com/farcloser/sonority/internal/normalize"
	"github.com/farcloser/sonority/version"
)

const (
	defaultConfigPath   = "~/.config/sonority/config.toml"
	projectConfigName   = "sonority.toml"
	defaultOutputFormat = "console"
	defaultWorkers      = 4
)

// Default returns the configuration used when no file is present.
// Platforms are filled in by normalize so a file's platform list replaces them instead of merging.
func Default() Config {
	return Config{
		Analyzer: Analyzer{
			Name:    version.Name(),
			Version: version.Version(),
		},
		Streaming: Streaming{
			CeilingDbTP: normalize.DefaultCeilingDbTP,
		},
		Output: Output{
			Format: defaultOutputFormat,
		},
		Report: Report{
			Workers: defaultWorkers,
		},
	}
}
