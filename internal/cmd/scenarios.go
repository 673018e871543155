// Copyright 2026 dotandev
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotandev/vigil/internal/detect"
	"github.com/dotandev/vigil/internal/scenario"
)

var scenariosJSON bool

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the attack scenario and detection rule libraries",
	Long: `List every built-in attack scenario and detection rule with its
category and severity. Use --json for machine-readable output, e.g. to
diff the library between vigil versions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarios := scenario.NewDefaultRegistry().Descriptors()
		rules := detect.NewDefaultRegistry().Descriptors()

		if scenariosJSON {
			out := struct {
				Scenarios []scenario.Descriptor `json:"scenarios"`
				Rules     []detect.Descriptor   `json:"rules"`
			}{scenarios, rules}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		color.New(color.Bold).Println("Attack scenarios")
		for _, d := range scenarios {
			fmt.Printf("  %-24s %-16s %-8s %s\n", d.ID, d.Category, d.Severity, d.Description)
		}

		fmt.Println()
		color.New(color.Bold).Println("Detection rules")
		for _, d := range rules {
			fmt.Printf("  %-26s %-16s %-8s %s\n", d.ID, d.Category, d.Severity, d.Description)
		}
		return nil
	},
}

func init() {
	scenariosCmd.Flags().BoolVar(&scenariosJSON, "json", false, "Emit the libraries as JSON")
	rootCmd.AddCommand(scenariosCmd)
}
