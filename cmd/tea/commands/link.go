package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <package[@range]>...",
		Short: "Link the newest installed version matching each package",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.Link(cmd.Context(), args)
			renderLinks(cmd.OutOrStdout(), result)
			return err
		},
	}
}

func (c *CLI) newUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <package>...",
		Short: "Remove the shortcuts of packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := c.app.Unlink(cmd.Context(), args)
			renderUnlinked(cmd.OutOrStdout(), removed)
			return err
		},
	}
}
