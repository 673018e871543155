package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotandev/vigil/internal/updater"
)

var (
	// Version will be set by the main package
	Version = "dev"

	versionCheck bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vigil",
	Long:  `Display the current version of the vigil CLI tool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("vigil version %s\n", Version)

		if !versionCheck {
			return nil
		}
		latest, newer, err := updater.NewChecker(Version).Check(cmd.Context())
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if newer {
			fmt.Printf("a newer release is available: %s\n", latest)
		} else {
			fmt.Println("you are on the latest release")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}
