package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/farcloser/primordium/fault"
	"github.com/urfave/cli/v3"
)

var errDigestArgs = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a sonority JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "recommendation",
				Aliases: []string{"r"},
				Usage:   "Show tracks that received a specific recommendation (e.g., rec_true_peak_headroom)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errDigestArgs, cmd.NArg())
			}

			return runDigest(cmd.Args().First(), cmd.String("recommendation"))
		},
	}
}

func runDigest(reportPath, recommendationFilter string) error {
	records, err := readRecords(reportPath)
	if err != nil {
		return err
	}

	printDigest(records)

	if recommendationFilter != "" {
		printRecommendationDetail(records, recommendationFilter)
	}

	return nil
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("%w: opening report: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	var records []digestRecord

	scanner := bufio.NewScanner(file)

	const maxLineSize = 4 * 1024 * 1024 // 4MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading report: %w", fault.ErrReadFailure, err)
	}

	return records, nil
}

func printDigest(records []digestRecord) {
	total := len(records)
	failed := 0
	statusDist := map[string]int{}
	severityDist := map[string]int{}
	labelDist := map[string]int{}
	recStats := map[string]*recommendationBreakdown{}

	for _, rec := range records {
		if rec.Error != "" || rec.Payload == nil {
			failed++

			continue
		}

		statusDist[rec.Payload.Summary.Status]++
		severityDist[rec.Payload.Summary.Severity]++
		labelDist[rec.Payload.DynamicsHealth.Label]++

		for _, r := range rec.Payload.Recommendations {
			breakdown, ok := recStats[r.ID]
			if !ok {
				breakdown = &recommendationBreakdown{ID: r.ID, Title: r.Title}
				recStats[r.ID] = breakdown
			}

			breakdown.Total++

			switch r.Severity {
			case "critical":
				breakdown.Critical++
			case "warn":
				breakdown.Warn++
			case "info":
				breakdown.Info++
			}
		}
	}

	fmt.Println("=== Sonority Report Digest ===")
	fmt.Println()
	fmt.Printf("Total tracks:  %d\n", total)
	fmt.Printf("Failed:        %d\n", failed)
	fmt.Printf("Built:         %d\n", total-failed)
	fmt.Println()

	fmt.Println("--- Status ---")
	fmt.Print(renderCounts(statusDist, []string{"approved", "approved_with_risks", "hard-fail"}))
	fmt.Println()

	fmt.Println("--- Severity ---")
	fmt.Print(renderCounts(severityDist, []string{"info", "warn", "critical"}))
	fmt.Println()

	fmt.Println("--- Dynamics ---")
	fmt.Print(renderCounts(labelDist, []string{"healthy", "borderline", "over-limited"}))
	fmt.Println()

	fmt.Println("--- Recommendations ---")

	breakdowns := make([]*recommendationBreakdown, 0, len(recStats))
	for _, bd := range recStats {
		breakdowns = append(breakdowns, bd)
	}

	slices.SortFunc(breakdowns, func(a, b *recommendationBreakdown) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}

		if a.ID < b.ID {
			return -1
		}

		return 1
	})

	rows := make([][]string, 0, len(breakdowns))
	for _, bd := range breakdowns {
		rows = append(rows, []string{
			bd.ID, bd.Title,
			strconv.Itoa(bd.Total), strconv.Itoa(bd.Critical), strconv.Itoa(bd.Warn), strconv.Itoa(bd.Info),
		})
	}

	fmt.Println(renderTable(os.Stdout,
		[]string{"ID", "Title", "Total", "Critical", "Warn", "Info"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
}

// renderCounts lists the known keys in order, then any unexpected ones.
func renderCounts(dist map[string]int, order []string) string {
	rows := make([][]string, 0, len(dist))

	for _, key := range order {
		rows = append(rows, []string{key, strconv.Itoa(dist[key])})
	}

	var extra []string

	for key := range dist {
		if !slices.Contains(order, key) {
			extra = append(extra, key)
		}
	}

	slices.Sort(extra)

	for _, key := range extra {
		rows = append(rows, []string{key, strconv.Itoa(dist[key])})
	}

	return renderTable(os.Stdout, []string{"Value", "Tracks"}, rows, []columnAlignment{alignLeft, alignRight}) + "\n"
}

type trackEntry struct {
	source   string
	queueID  string
	severity string
	score    int
	label    string
}

func printRecommendationDetail(records []digestRecord, id string) {
	fmt.Println()

	var entries []trackEntry

	for _, rec := range records {
		if rec.Error != "" || rec.Payload == nil {
			continue
		}

		for _, r := range rec.Payload.Recommendations {
			if r.ID != id {
				continue
			}

			source := rec.Source
			if source == "" {
				source = "(redacted)"
			}

			entries = append(entries, trackEntry{
				source:   source,
				queueID:  rec.Payload.Track.QueueID,
				severity: r.Severity,
				score:    rec.Payload.DynamicsHealth.Score,
				label:    rec.Payload.DynamicsHealth.Label,
			})
		}
	}

	if len(entries) == 0 {
		fmt.Printf("No tracks received %s\n", id)

		return
	}

	slices.SortStableFunc(entries, func(a, b trackEntry) int {
		return severityRank(a.severity) - severityRank(b.severity)
	})

	fmt.Printf("=== %s: %d tracks ===\n\n", id, len(entries))

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.queueID, entry.source, entry.severity, fmt.Sprintf("%d (%s)", entry.score, entry.label),
		})
	}

	fmt.Println(renderTable(os.Stdout,
		[]string{"Queue ID", "Source", "Severity", "Dynamics"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
}

func severityRank(severity string) int {
	switch severity {
	case "critical":
		return 0
	case "warn":
		return 1
	case "info":
		return 2
	default:
		return 3
	}
}
