package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/sonority/internal/config"
)

var errConfigExists = errors.New("configuration file already exists")

func initConfigCommand() *cli.Command {
	return &cli.Command{
		Name:      "init-config",
		Usage:     "Write a commented sample configuration",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing file",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
				return fmt.Errorf("%w: %s (use --force to overwrite)", errConfigExists, path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			if err := config.CreateSample(path); err != nil {
				return err
			}

			_, err := fmt.Fprintln(os.Stdout, path)

			return err
		},
	}
}
