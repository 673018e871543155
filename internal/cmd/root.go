// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotandev/vigil/internal/updater"
)

// Global flag variables
var (
	CatalogFlag string
	RPCURLFlag  string
	NetworkFlag string
	VerboseFlag bool
	JSONLogFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Pre-deployment attack simulation for Solana programs",
	Long: `Vigil probes deployed Solana programs with a library of known attack
patterns before real value is at stake. Every attack runs through the
cluster's simulation path, so no ledger state ever changes.

Key features:
  - Curated attack scenarios: privilege escalation, overdraw, double
    spend, reentrancy, oracle injection, instruction flooding
  - Account snapshots before and after every simulated attack
  - Detection rules that inspect balances, authority fields, logs and
    compute usage for exploit evidence
  - Security scoring and JSON/HTML audit reports
  - A sqlite audit trail of past runs

Examples:
  vigil audit                         Audit the built-in sample catalog
  vigil audit --catalog targets.yaml  Audit your own programs
  vigil scenarios                     List the attack library
  vigil targets init                  Write a starter catalog
  vigil report                        List past audit runs

Get started with 'vigil audit --help'.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		checkForUpdatesAsync()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// checkForUpdatesAsync runs the update check in a goroutine to not block
// CLI startup.
func checkForUpdatesAsync() {
	go func() {
		checker := updater.NewChecker(Version)
		checker.CheckInBackground()
	}()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&CatalogFlag,
		"catalog",
		"",
		"Path to a YAML target catalog (default: built-in sample catalog)",
	)

	rootCmd.PersistentFlags().StringVar(
		&RPCURLFlag,
		"rpc-url",
		"",
		"Solana JSON-RPC endpoint (overrides config and VIGIL_RPC_URL)",
	)

	rootCmd.PersistentFlags().StringVar(
		&NetworkFlag,
		"network",
		"",
		"Target network: mainnet-beta, devnet, testnet or localnet",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&VerboseFlag,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().BoolVar(
		&JSONLogFlag,
		"log-json",
		false,
		"Emit logs as JSON, for piping into log collectors",
	)
}
