package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/tea/internal/app"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <package[@range]>...",
		Short: "Install packages and link their executables",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			noLink, _ := cmd.Flags().GetBool("no-link")

			result, err := c.app.Install(cmd.Context(), args, app.InstallOptions{NoLink: noLink})
			if result != nil {
				renderResult(cmd.OutOrStdout(), result)
			}
			return err
		},
	}
	cmd.Flags().Bool("no-link", false, "Install without creating shortcuts in the prefix")
	return cmd
}

func (c *CLI) newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <package[@range]>...",
		Short: "Print the install plan without installing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := c.app.Resolve(cmd.Context(), args)
			if err != nil {
				return err
			}
			renderPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
}
