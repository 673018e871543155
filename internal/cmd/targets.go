// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotandev/vigil/internal/catalog"
	"github.com/dotandev/vigil/internal/chain"
	"github.com/dotandev/vigil/internal/scenario"
)

var targetsLive bool

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Inspect the target program catalog",
	Long: `Show the programs the audit will run against, with their capability
profile and the scenarios that apply to each.

With --live, also query the cluster for each program's owned accounts
and SPL token holdings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		targets, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		scenarios := scenario.NewDefaultRegistry()
		var client *chain.Client
		if targetsLive {
			client = newChainClient(cfg)
		}

		source := cfg.CatalogPath
		if source == "" {
			source = "built-in sample catalog"
		}
		fmt.Printf("Catalog: %s (%d program(s))\n\n", source, targets.Len())

		for _, target := range targets.List() {
			color.New(color.Bold).Printf("%s\n", target.Name)
			fmt.Printf("  address:      %s\n", target.Address)
			fmt.Printf("  capabilities: %v\n", target.Capabilities())

			if len(target.Accounts) > 0 {
				names := make([]string, 0, len(target.Accounts))
				for name := range target.Accounts {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Println("  accounts:")
				for _, name := range names {
					fmt.Printf("    %-16s %s\n", name, target.Accounts[name])
				}
			}

			applicable := scenarios.ForTarget(target)
			ids := make([]string, 0, len(applicable))
			for _, sc := range applicable {
				ids = append(ids, sc.ID)
			}
			fmt.Printf("  scenarios:    %v\n", ids)

			if client != nil {
				printLiveState(cmd.Context(), client, target)
			}
			fmt.Println()
		}
		return nil
	},
}

// printLiveState queries the cluster for the target's owned accounts and
// token holdings. Query failures are reported inline rather than aborting
// the listing, so one unreachable program does not hide the rest.
func printLiveState(ctx context.Context, client *chain.Client, target *catalog.TargetProgram) {
	owned, err := client.GetProgramAccounts(ctx, target.Address.String())
	if err != nil {
		color.Red("  on-chain:     query failed: %v", err)
		return
	}
	fmt.Printf("  on-chain:     %d owned account(s)\n", len(owned))

	balances, err := client.GetTokenAccountsByOwner(ctx, target.Address.String())
	if err != nil {
		color.Red("  holdings:     query failed: %v", err)
		return
	}
	for _, b := range balances {
		fmt.Printf("  holdings:     %d of mint %s\n", b.Amount, b.Mint)
	}
}

var targetsInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter catalog file",
	Long: `Write the sample catalog to the given path (default targets.yaml) as a
starting point. Replace the placeholder addresses with your own program
and account addresses before auditing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "targets.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", path)
		}
		if err := os.WriteFile(path, catalog.SampleCatalog(), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote starter catalog to %s\n", path)
		fmt.Println("edit the addresses, then run: vigil audit --catalog " + path)
		return nil
	},
}

func init() {
	targetsCmd.Flags().BoolVar(&targetsLive, "live", false, "Query the cluster for on-chain account state")
	targetsCmd.AddCommand(targetsInitCmd)
	rootCmd.AddCommand(targetsCmd)
}
