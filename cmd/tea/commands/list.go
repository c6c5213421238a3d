package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed package versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verify, _ := cmd.Flags().GetBool("verify")

			items, err := c.app.List(cmd.Context(), verify)
			renderList(cmd.OutOrStdout(), items)
			return err
		},
	}
	cmd.Flags().Bool("verify", false, "Check every installed tree against its manifest")
	return cmd
}
