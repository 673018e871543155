// Copyright (c) 2026 dotandev
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dotandev/vigil/internal/orchestrator"
	"github.com/dotandev/vigil/internal/simulator"
	"github.com/dotandev/vigil/internal/store"
	"github.com/dotandev/vigil/internal/suite"
	"github.com/dotandev/vigil/internal/telemetry"
)

var (
	auditCategories     []string
	auditPrograms       []string
	auditScenarios      []string
	auditSkipInfra      bool
	auditOutputDir      string
	auditFormats        []string
	auditPersist        bool
	auditPersistSnaps   bool
	auditWebhooks       []string
	auditCommit         bool
	auditTimeout        time.Duration
	auditFailOnFindings bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the attack suite against cataloged programs",
	Long: `Run every applicable attack scenario against the cataloged programs and
report which attacks the programs block.

All attacks execute through simulateTransaction: nothing is submitted to
the cluster unless --commit is given AND dangerous_allow_commit is set in
the config file. A scenario passes when the program prevented the attack,
fails when the detection rules found exploit evidence, and errors when the
infrastructure (RPC, catalog) broke.

Examples:
  vigil audit                                      Audit the sample catalog on devnet
  vigil audit --catalog targets.yaml --network testnet
  vigil audit --category access_control,overflow   Only these rule categories
  vigil audit --scenario overdraw-transfer         Run one scenario
  vigil audit --output ./reports --format json,html`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if auditTimeout > 0 {
		cfg.ScenarioTimeout = auditTimeout
	}
	if auditPersist {
		cfg.PersistResults = true
	}
	if auditPersistSnaps {
		cfg.PersistResults = true
		cfg.PersistSnapshots = true
	}
	if len(auditWebhooks) > 0 {
		cfg.WebhookURLs = auditWebhooks
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.TelemetryEnabled,
		ExporterURL: cfg.TelemetryURL,
		ServiceName: "vigil",
	})
	if err != nil {
		return err
	}
	defer shutdown()

	targets, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	client := newChainClient(cfg)
	opts := []orchestrator.Option{}

	if auditCommit {
		committing, err := simulator.NewCommitting(client, cfg.DangerousAllowCommit)
		if err != nil {
			return err
		}
		color.Yellow("warning: commit mode enabled, successful attacks WILL be submitted")
		opts = append(opts, orchestrator.WithSimulator(committing))
	}

	if cfg.PersistResults {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, orchestrator.WithStore(st))
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	if notifier != nil && notifier.IsEnabled() {
		opts = append(opts, orchestrator.WithNotifier(notifier))
	}

	o := orchestrator.New(cfg, client, targets, opts...)
	sel := orchestrator.Selection{
		Categories:      auditCategories,
		Programs:        auditPrograms,
		ScenarioIDs:     auditScenarios,
		SkipInfraChecks: auditSkipInfra,
	}

	planned := o.Planned(sel)
	if planned == 0 {
		return fmt.Errorf("selection matches no scenarios; check --category, --program and --scenario values")
	}

	fmt.Printf("Auditing %d program(s) on %s: %d check(s) planned\n\n",
		targets.Len(), cfg.Network, planned)

	bar := progressbar.NewOptions(planned,
		progressbar.OptionSetDescription("auditing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)

	sink := make(chan suite.TestResult, planned)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range sink {
			_ = bar.Add(1)
			printResult(result)
		}
	}()

	report, err := o.RunSuite(ctx, sel, sink)
	<-done
	_ = bar.Finish()
	if err != nil {
		return err
	}

	printSummary(report)

	if auditOutputDir != "" {
		exporter, err := suite.NewExporter(auditOutputDir)
		if err != nil {
			return err
		}
		paths, err := exporter.ExportMultiple(report, auditFormats)
		if err != nil {
			return err
		}
		for format, path := range paths {
			fmt.Printf("wrote %s report: %s\n", format, path)
		}
	}

	if auditFailOnFindings && report.Summary.Failed > 0 {
		return fmt.Errorf("%d scenario(s) found vulnerabilities", report.Summary.Failed)
	}
	return nil
}

func printResult(r suite.TestResult) {
	label := r.ScenarioName
	if r.TargetProgram != "" {
		label = fmt.Sprintf("%s [%s]", r.ScenarioName, r.TargetProgram)
	}
	switch r.Status {
	case suite.StatusPassed:
		fmt.Printf("  %s %s\n", color.GreenString("PASS"), label)
	case suite.StatusFailed:
		severity := string(r.Severity())
		fmt.Printf("  %s %s (%s, severity %s)\n",
			color.RedString("FAIL"), label, r.Category, severity)
		if r.Details != "" {
			fmt.Printf("       %s\n", r.Details)
		}
	case suite.StatusSkipped:
		fmt.Printf("  %s %s\n", color.YellowString("SKIP"), label)
	default:
		fmt.Printf("  %s %s: %s\n", color.YellowString("ERR "), label, r.Error)
	}
}

func printSummary(report *suite.TestSuiteReport) {
	s := report.Summary
	fmt.Println()
	fmt.Printf("Run %s finished in %dms\n", report.RunID, s.ExecutionTimeMs)
	fmt.Printf("  %s %d  %s %d  skipped %d  errors %d\n",
		color.GreenString("passed"), s.Passed,
		color.RedString("failed"), s.Failed,
		s.Skipped, s.Errors)

	scoreLine := fmt.Sprintf("Security score: %d/100", report.SecurityScore)
	switch {
	case report.SecurityScore >= 90:
		color.Green(scoreLine)
	case report.SecurityScore >= 60:
		color.Yellow(scoreLine)
	default:
		color.Red(scoreLine)
	}

	if len(report.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range report.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
}

func init() {
	auditCmd.Flags().StringSliceVar(&auditCategories, "category", nil, "Restrict to these rule categories")
	auditCmd.Flags().StringSliceVar(&auditPrograms, "program", nil, "Restrict to these cataloged program names")
	auditCmd.Flags().StringSliceVar(&auditScenarios, "scenario", nil, "Restrict to these scenario ids")
	auditCmd.Flags().BoolVar(&auditSkipInfra, "skip-infra-checks", false, "Skip RPC and catalog self-checks")
	auditCmd.Flags().StringVarP(&auditOutputDir, "output", "o", "", "Directory to write audit reports to")
	auditCmd.Flags().StringSliceVar(&auditFormats, "format", []string{"json"}, "Report formats: json, html")
	auditCmd.Flags().BoolVar(&auditPersist, "persist", false, "Record this run in the sqlite audit trail")
	auditCmd.Flags().BoolVar(&auditPersistSnaps, "persist-snapshots", false, "Also retain pre/post account snapshots (implies --persist)")
	auditCmd.Flags().StringSliceVar(&auditWebhooks, "webhook", nil, "Webhook URLs notified per result (Slack, Discord or generic)")
	auditCmd.Flags().BoolVar(&auditCommit, "commit", false, "Submit attacks whose dry run succeeded (requires dangerous_allow_commit)")
	auditCmd.Flags().DurationVar(&auditTimeout, "timeout", 0, "Per-scenario timeout (default 30s)")
	auditCmd.Flags().BoolVar(&auditFailOnFindings, "fail-on-findings", true, "Exit non-zero when vulnerabilities are found")

	rootCmd.AddCommand(auditCmd)
}
