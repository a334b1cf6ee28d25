//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"os"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/sonority/internal/normalize"
	"github.com/farcloser/sonority/internal/output"
	"github.com/farcloser/sonority/metric"
)

var errNormalizeArgs = errors.New("normalize takes no arguments")

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Predict streaming normalization gains for a master",
		Flags: []cli.Flag{
			configFlag(),
			formatFlag(),
			&cli.FloatFlag{
				Name:     "lufs",
				Aliases:  []string{"l"},
				Usage:    "Integrated loudness in LUFS",
				Required: true,
			},
			&cli.FloatFlag{
				Name:    "true-peak",
				Aliases: []string{"t"},
				Usage:   "True peak in dBTP (up-gain is unknown without it)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 0 {
				return errNormalizeArgs
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			truePeak := metric.None
			if cmd.IsSet("true-peak") {
				truePeak = metric.Of(cmd.Float("true-peak"))
			}

			report := normalize.Compute(
				metric.Of(cmd.Float("lufs")),
				truePeak,
				cfg.Streaming.Platforms,
				cfg.Streaming.CeilingDbTP,
			)

			formatter, err := format.GetFormatter(outputFormat(cmd, cfg))
			if err != nil {
				return err
			}

			data := &format.Data{
				Object: "streaming normalization",
				Meta:   output.NormalizationToMap(report),
			}

			return formatter.PrintAll([]*format.Data{data}, os.Stdout)
		},
	}
}
