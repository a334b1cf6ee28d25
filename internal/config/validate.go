package config

import (
	"errors"
	"fmt"
)

var errInvalidConfig = errors.New("invalid configuration")

const (
	minCeilingDbTP = -10.0
	minTargetLUFS  = -40.0
	maxWorkers     = 256
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStreaming(); err != nil {
		return err
	}

	if err := c.validateOutput(); err != nil {
		return err
	}

	if c.Report.Workers < 1 || c.Report.Workers > maxWorkers {
		return fmt.Errorf("%w: report.workers must be between 1 and %d", errInvalidConfig, maxWorkers)
	}

	return nil
}

func (c *Config) validateStreaming() error {
	if c.Streaming.CeilingDbTP > 0 || c.Streaming.CeilingDbTP < minCeilingDbTP {
		return fmt.Errorf("%w: streaming.ceiling_dbtp must be between %.0f and 0",
			errInvalidConfig, minCeilingDbTP)
	}

	seen := map[string]bool{}

	for i, platform := range c.Streaming.Platforms {
		if platform.Name == "" {
			return fmt.Errorf("%w: streaming.platforms[%d].name is required", errInvalidConfig, i)
		}

		if seen[platform.Name] {
			return fmt.Errorf("%w: duplicate streaming platform %q", errInvalidConfig, platform.Name)
		}

		seen[platform.Name] = true

		if platform.TargetLUFS > 0 || platform.TargetLUFS < minTargetLUFS {
			return fmt.Errorf("%w: streaming.platforms[%d].target_lufs must be between %.0f and 0",
				errInvalidConfig, i, minTargetLUFS)
		}
	}

	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case "console", "json", "markdown":
		return nil
	}

	return fmt.Errorf("%w: output.format must be console, json or markdown, got %q",
		errInvalidConfig, c.Output.Format)
}
