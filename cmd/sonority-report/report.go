//nolint:wrapcheck
package main

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/farcloser/primordium/fault"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/sonority"
	"github.com/farcloser/sonority/internal/config"
)

const defaultOutputFile = "sonority-report.jsonl"

var (
	errReportArgs = errors.New("expected exactly one argument: requests .jsonl file or folder of request files")
	errNoRequests = errors.New("no requests found")
)

// job is one request to evaluate. Folder jobs are read by the worker, JSONL jobs carry their line.
type job struct {
	source string
	path   string
	data   []byte
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Build feedback for a batch of requests and write a JSONL report",
		ArgsUsage: "<requests.jsonl | folder>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file to write (a .gz copy is written next to it)",
				Value:   defaultOutputFile,
			},
			&cli.BoolFlag{
				Name:  "redact-source",
				Usage: "Strip request file names and line numbers from the report",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers (default: from configuration)",
			},
			&cli.StringFlag{
				Name:  "generated-at",
				Usage: "RFC3339 timestamp to stamp instead of the current time",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errReportArgs, cmd.NArg())
			}

			cfg, _, _, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			workers := cfg.Report.Workers
			if cmd.IsSet("workers") {
				workers = max(cmd.Int("workers"), 1)
			}

			opts := cfg.Options()

			if stamp := cmd.String("generated-at"); stamp != "" {
				at, err := time.Parse(time.RFC3339, stamp)
				if err != nil {
					return fmt.Errorf("--generated-at: %w", err)
				}

				opts.Now = func() time.Time { return at }
			}

			return runReport(ctx, cmd.Args().First(), cmd.String("output"), cmd.Bool("redact-source"), workers, opts)
		},
	}
}

func runReport(
	ctx context.Context,
	input, outputFile string,
	redact bool,
	workers int,
	opts sonority.Options,
) error {
	jobs, err := collectJobs(input)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		return fmt.Errorf("%q: %w", input, errNoRequests)
	}

	fmt.Fprintf(os.Stderr, "Found %d requests (%d workers)\n", len(jobs), workers)

	// Process requests concurrently.
	startTime := time.Now()
	results := make([]Record, len(jobs))

	var progress atomic.Int64

	sem := make(chan struct{}, workers)

	var waitGroup sync.WaitGroup

	for idx := range jobs {
		waitGroup.Add(1)

		go func(idx int) {
			defer waitGroup.Done()

			sem <- struct{}{}

			defer func() { <-sem }()

			results[idx] = processRequest(ctx, jobs[idx], opts)

			done := progress.Add(1)
			slog.Debug("report.processRequest", "done", done, "total", len(jobs), "source", jobs[idx].source)
		}(idx)
	}

	waitGroup.Wait()

	// Write results in input order.
	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var totalParse, totalBuild time.Duration

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Timing != nil {
			totalParse += millisToDuration(record.Timing.ParseMs)
			totalBuild += millisToDuration(record.Timing.BuildMs)
		}

		if redact {
			record.Source = ""
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "source", jobs[idx].source, "error", err)
		}
	}

	out.Close()

	if err := compressFile(outputFile); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)

	fmt.Fprintf(os.Stderr, "\nDone: %d requests in %s (%d failed)\n",
		len(jobs), elapsed.Truncate(time.Millisecond), failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", outputFile, outputFile)

	if built := len(jobs) - failed; built > 0 {
		fmt.Fprintf(os.Stderr, "  avg/request: parse %s, build %s\n",
			totalParse/time.Duration(built), totalBuild/time.Duration(built))
	}

	fmt.Fprintln(os.Stderr)

	return runDigest(outputFile, "")
}

func processRequest(ctx context.Context, item job, opts sonority.Options) Record {
	start := time.Now()
	timing := &RecordTiming{}

	if err := ctx.Err(); err != nil {
		return Record{Source: item.source, Error: err.Error()}
	}

	data := item.data
	if item.path != "" {
		var err error

		data, err = os.ReadFile(item.path) //nolint:gosec // CLI tool opens user-specified request files
		if err != nil {
			return Record{Source: item.source, Error: fmt.Sprintf("%v: %v", fault.ErrReadFailure, err)}
		}
	}

	var (
		req *sonority.Request
		err error
	)

	switch strings.ToLower(filepath.Ext(item.path)) {
	case ".yaml", ".yml":
		req, err = sonority.ParseRequestYAML(data)
	default:
		req, err = sonority.ParseRequest(data)
	}

	timing.ParseMs = durationMs(time.Since(start))

	if err != nil {
		return Record{Source: item.source, Error: fmt.Sprintf("parse failed: %v", err), Timing: timing}
	}

	buildStart := time.Now()
	payload, err := sonority.Build(req, opts)
	timing.BuildMs = durationMs(time.Since(buildStart))
	timing.TotalMs = durationMs(time.Since(start))

	if err != nil {
		return Record{Source: item.source, Error: fmt.Sprintf("build failed: %v", err), Timing: timing}
	}

	return Record{Source: item.source, Payload: payload, Timing: timing}
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func collectJobs(input string) ([]job, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if info.IsDir() {
		files, err := collectRequestFiles(input)
		if err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}

		jobs := make([]job, 0, len(files))
		for _, path := range files {
			jobs = append(jobs, job{source: path, path: path})
		}

		return jobs, nil
	}

	return readLines(input)
}

func readLines(path string) ([]job, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified request files
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	var jobs []job

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		jobs = append(jobs, job{
			source: fmt.Sprintf("%s:%d", path, lineNumber),
			data:   bytes.Clone(line),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return jobs, nil
}

func collectRequestFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}
