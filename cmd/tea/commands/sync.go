package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/tea/internal/app"
)

func (c *CLI) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Update the pantry from its remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Sync(cmd.Context())
		},
	}
}

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale temporary files or the artifact cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, _ := cmd.Flags().GetBool("cache")
			temp, _ := cmd.Flags().GetBool("temp")

			// Default behavior: sweep temporary files
			if !cache && !temp {
				temp = true
			}

			return c.app.Clean(cmd.Context(), app.CleanOptions{Cache: cache, Temp: temp})
		},
	}

	cmd.Flags().BoolP("cache", "c", false, "Remove every downloaded bottle")
	cmd.Flags().BoolP("temp", "t", false, "Remove temporary files left by interrupted runs")

	return cmd
}
