// Package cli wires the gushter commands together.
package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/x0georgiev/gushter/internal/app"
	"github.com/x0georgiev/gushter/internal/app/config"
	"github.com/x0georgiev/gushter/internal/buildinfo"
	infraConfig "github.com/x0georgiev/gushter/internal/infra/config"
)

// globalConfig holds the loaded configuration for all commands.
var globalConfig config.Config

func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gushter",
		Short: "Supervised agent iteration loop",
		Long: `gushter drives a backlog of work items through an agent one
iteration at a time: run, interpret, verify, and either complete
the story or roll the working tree back and retry with backoff.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Priority: setting.json > defaults
			paths := app.ResolvePaths()
			cfg, err := infraConfig.LoadSettings(afero.NewOsFs(), paths.Home)
			if err != nil {
				return err
			}
			globalConfig = cfg
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newBacklogCmd())
	cmd.AddCommand(newUnblockCmd())
	cmd.AddCommand(newRollbackCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "gushter version %s\n", buildinfo.GetVersion())
			fmt.Fprintf(cmd.OutOrStdout(), "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

// newLogger builds the stderr logger commands share, honoring the
// configured level.
func newLogger() app.Logger {
	level := "info"
	if globalConfig != nil {
		level = globalConfig.StderrLevel()
	}
	if env := os.Getenv("GUSHTER_STDERR_LEVEL"); env != "" {
		level = env
	}
	return app.NewLogger(app.ParseLevel(level))
}
