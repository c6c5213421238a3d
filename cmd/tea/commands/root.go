// Package commands implements the CLI commands for tea.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/tea/internal/app"
	"go.trai.ch/tea/internal/build"
	"go.trai.ch/tea/internal/core/domain"
)

// CLI represents the command line interface for tea.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Install(ctx context.Context, args []string, opts app.InstallOptions) (*domain.InstallResult, error)
	Resolve(ctx context.Context, args []string) (*domain.Plan, error)
	Link(ctx context.Context, args []string) (domain.LinkResult, error)
	Unlink(ctx context.Context, names []string) ([]domain.LinkEntry, error)
	List(ctx context.Context, verify bool) ([]app.ListItem, error)
	Env(ctx context.Context, args []string) (domain.Env, error)
	Run(ctx context.Context, args, argv []string) error
	Sync(ctx context.Context) error
	Clean(ctx context.Context, options app.CleanOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "tea",
		Short:         "Install packages into a versioned prefix",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(
		c.newInstallCmd(),
		c.newResolveCmd(),
		c.newLinkCmd(),
		c.newUnlinkCmd(),
		c.newListCmd(),
		c.newEnvCmd(),
		c.newRunCmd(),
		c.newSyncCmd(),
		c.newCleanCmd(),
		c.newVersionCmd(),
	)

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
