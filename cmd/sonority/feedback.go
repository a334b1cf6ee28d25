//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farcloser/primordium/fault"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/sonority"
	"github.com/farcloser/sonority/internal/config"
)

var (
	errInvalidArgCount    = errors.New("expected exactly one argument: request file path or \"-\" for stdin")
	errInvalidInputFormat = errors.New("input format must be json or yaml")
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a TOML configuration file (default: ~/.config/sonority/config.toml)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: console, json, markdown (default: from configuration)",
	}
}

func feedbackCommand() *cli.Command {
	return &cli.Command{
		Name:      "feedback",
		Usage:     "Build the feedback payload for one request",
		ArgsUsage: "<file | ->",
		Flags: []cli.Flag{
			configFlag(),
			formatFlag(),
			&cli.StringFlag{
				Name:    "input-format",
				Aliases: []string{"i"},
				Usage:   "Request format: json, yaml (default: from the file extension, json for stdin)",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the payload document verbatim as JSON",
			},
			&cli.BoolFlag{
				Name:    "detailed",
				Aliases: []string{"D"},
				Usage:   "Include every payload field in formatted output",
			},
			&cli.StringFlag{
				Name:  "generated-at",
				Usage: "RFC3339 timestamp to stamp instead of the current time",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			inputPath := cmd.Args().First()

			req, err := readRequest(inputPath, cmd.String("input-format"))
			if err != nil {
				return err
			}

			opts := cfg.Options()

			if stamp := cmd.String("generated-at"); stamp != "" {
				at, err := time.Parse(time.RFC3339, stamp)
				if err != nil {
					return fmt.Errorf("--generated-at: %w", err)
				}

				opts.Now = func() time.Time { return at }
			}

			payload, err := sonority.Build(req, opts)
			if err != nil {
				return err
			}

			slog.Debug("feedback.Build", "queue_id", payload.Track.QueueID,
				"status", payload.Summary.Status, "severity", payload.Summary.Severity)

			if cmd.Bool("raw") {
				return writeRaw(os.Stdout, payload)
			}

			return outputPayload(inputPath, payload, outputFormat(cmd, cfg), cmd.Bool("detailed"))
		},
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, resolved, exists, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	slog.Debug("config.Load", "path", resolved, "exists", exists)

	return cfg, nil
}

func outputFormat(cmd *cli.Command, cfg *config.Config) string {
	if cmd.IsSet("format") {
		return cmd.String("format")
	}

	return cfg.Output.Format
}

func readRequest(source, inputFormat string) (*sonority.Request, error) {
	data, err := readInput(source)
	if err != nil {
		return nil, err
	}

	if inputFormat == "" {
		inputFormat = "json"

		switch strings.ToLower(filepath.Ext(source)) {
		case ".yaml", ".yml":
			inputFormat = "yaml"
		}
	}

	switch strings.ToLower(inputFormat) {
	case "json":
		return sonority.ParseRequest(data)
	case "yaml", "yml":
		return sonority.ParseRequestYAML(data)
	}

	return nil, fmt.Errorf("%w: got %q", errInvalidInputFormat, inputFormat)
}

func readInput(source string) ([]byte, error) {
	if source == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: reading stdin: %w", fault.ErrReadFailure, err)
		}

		return data, nil
	}

	data, err := os.ReadFile(source) //nolint:gosec // CLI tool opens user-specified request files
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return data, nil
}
