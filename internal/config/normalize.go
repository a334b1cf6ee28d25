package config

import (
	"strings"

	"github.com/farcloser/sonority/internal/normalize"
	"github.com/farcloser/sonority/version"
)

func (c *Config) normalize() {
	c.Analyzer.Name = strings.TrimSpace(c.Analyzer.Name)
	if c.Analyzer.Name == "" {
		c.Analyzer.Name = version.Name()
	}

	c.Analyzer.Version = strings.TrimSpace(c.Analyzer.Version)
	if c.Analyzer.Version == "" {
		c.Analyzer.Version = version.Version()
	}

	if len(c.Streaming.Platforms) == 0 {
		c.Streaming.Platforms = normalize.DefaultPlatforms()
	}

	for i := range c.Streaming.Platforms {
		platform := &c.Streaming.Platforms[i]
		platform.Name = strings.ToLower(strings.TrimSpace(platform.Name))

		platform.Label = strings.TrimSpace(platform.Label)
		if platform.Label == "" {
			platform.Label = platform.Name
		}
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}

	if c.Report.Workers == 0 {
		c.Report.Workers = defaultWorkers
	}
}
