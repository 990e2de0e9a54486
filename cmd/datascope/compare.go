package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datascope/datascope/pkg/report"
)

var compareOutput string

var compareCmd = &cobra.Command{
	Use:   "compare [report-a.json] [report-b.json]",
	Short: "Compare two saved findings reports",
	Long: `Compare two report JSON files (as written by analyze -o or watch) and
print the metric deltas between them.

Examples:
  datascope compare before.report.json after.report.json
  datascope compare a.json b.json -o diff.json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "Write the comparison JSON to a file")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	repA, err := readReportJSON(args[0])
	if err != nil {
		return err
	}
	repB, err := readReportJSON(args[1])
	if err != nil {
		return err
	}

	cmp := report.Compare(repA, repB, filepath.Base(args[0]), filepath.Base(args[1]))

	if compareOutput != "" {
		data, err := json.MarshalIndent(cmp, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(compareOutput, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Comparison written to %s\n", compareOutput)
		return nil
	}

	fmt.Printf("Comparing %s vs %s\n\n", cmp.Comparison.DatasetA, cmp.Comparison.DatasetB)
	for _, name := range []string{"rows", "cols", "duplicate_rows", "insights_count"} {
		delta, ok := cmp.Comparison.Metrics[name]
		if !ok {
			continue
		}
		fmt.Printf("  %-16s %v -> %v (%+d)\n", name, delta.A, delta.B, delta.Diff)
	}

	printMissing := func(label string, entries []report.MissingEntry) {
		if len(entries) == 0 {
			return
		}
		fmt.Printf("\n  Top missing columns (%s):\n", label)
		for _, e := range entries {
			fmt.Printf("    %-24s %d\n", e.Column, e.Missing)
		}
	}
	printMissing(cmp.Comparison.DatasetA, cmp.Comparison.TopMissingA)
	printMissing(cmp.Comparison.DatasetB, cmp.Comparison.TopMissingB)

	if len(cmp.Errors) > 0 {
		fmt.Printf("\n  %d error(s) carried from the source reports\n", len(cmp.Errors))
	}
	return nil
}

func readReportJSON(path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &rep, nil
}
