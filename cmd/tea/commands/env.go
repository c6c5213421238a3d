package commands

import (
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/tea/internal/engine/shellenv"
)

func (c *CLI) newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "env <package[@range]>...",
		Short:   "Install packages and print shell exports that make them usable",
		Example: `  eval "$(tea env node@18 python.org~3.11)"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.app.Env(cmd.Context(), args)
			if err != nil {
				return err
			}
			exports, err := shellenv.Exports(env)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), exports)
			return err
		},
	}
}

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <package[@range]>... -- <command> [args...]",
		Short: "Install packages and run a command with them on the search paths",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash < 1 || dash == len(args) {
				_ = cmd.Help()
				return nil
			}
			return c.app.Run(cmd.Context(), args[:dash], args[dash:])
		},
	}
}
