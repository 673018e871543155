// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotandev/vigil/internal/store"
	"github.com/dotandev/vigil/internal/suite"
)

var (
	reportRunID     string
	reportExportDir string
	reportFormats   []string
	reportLimit     int
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Inspect past audit runs from the audit trail",
	Long: `Without arguments, list recent persisted audit runs. With a run id,
print that run's results and optionally re-export its report.

Runs are only persisted when auditing with --persist.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return err
		}
		defer st.Close()

		runID := reportRunID
		if len(args) == 1 {
			runID = args[0]
		}
		if runID == "" {
			return listRuns(cmd, st)
		}
		return showRun(cmd, st, runID)
	},
}

func listRuns(cmd *cobra.Command, st *store.Store) error {
	runs, err := st.ListRuns(cmd.Context(), reportLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no persisted runs; audit with --persist to record them")
		return nil
	}

	fmt.Printf("%-36s  %-13s  %-20s  %5s  %6s  %6s  %5s\n",
		"RUN ID", "NETWORK", "DATE", "TOTAL", "PASSED", "FAILED", "SCORE")
	for _, r := range runs {
		fmt.Printf("%-36s  %-13s  %-20s  %5d  %6d  %6d  %5d\n",
			r.RunID, r.Network, r.TestDate.Format("2006-01-02 15:04:05"),
			r.Total, r.Passed, r.Failed, r.SecurityScore)
	}
	return nil
}

func showRun(cmd *cobra.Command, st *store.Store, runID string) error {
	report, err := st.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s on %s (%s)\n\n", report.RunID, report.Network,
		report.Summary.TestDate.Format("2006-01-02 15:04:05"))
	for _, r := range report.Results {
		printResult(r)
	}
	printSummary(report)

	if len(report.CategoryBreakdown) > 0 {
		fmt.Println("\nBy category:")
		for category, b := range report.CategoryBreakdown {
			printBreakdown(category, b)
		}
	}
	if len(report.ProgramBreakdown) > 0 {
		fmt.Println("\nBy program:")
		for program, b := range report.ProgramBreakdown {
			printBreakdown(program, b)
		}
	}

	if reportExportDir != "" {
		exporter, err := suite.NewExporter(reportExportDir)
		if err != nil {
			return err
		}
		paths, err := exporter.ExportMultiple(report, reportFormats)
		if err != nil {
			return err
		}
		for format, path := range paths {
			fmt.Printf("wrote %s report: %s\n", format, path)
		}
	}
	return nil
}

func printBreakdown(label string, b *suite.Breakdown) {
	line := fmt.Sprintf("  %-20s %d/%d passed", label, b.Passed, b.Total)
	if b.Failed > 0 {
		fmt.Println(color.RedString(line))
	} else {
		fmt.Println(line)
	}
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run", "", "Run id to show (same as the positional argument)")
	reportCmd.Flags().StringVarP(&reportExportDir, "output", "o", "", "Directory to re-export the report to")
	reportCmd.Flags().StringSliceVar(&reportFormats, "format", []string{"json"}, "Report formats: json, html")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 20, "Maximum runs to list")
	rootCmd.AddCommand(reportCmd)
}
