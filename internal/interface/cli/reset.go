package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/x0georgiev/gushter/internal/app"
)

func newResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the run state so the next run starts from scratch",
		Long: `reset removes the durable run record (iteration counter, attempt
history, blocked set). The backlog file itself is untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()
			paths := app.ResolvePaths()

			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Remove %s? [y/N] ", paths.RunState)
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			for _, p := range []string{paths.RunState, paths.Health} {
				exists, err := afero.Exists(fsys, p)
				if err != nil {
					return err
				}
				if !exists {
					continue
				}
				if err := fsys.Remove(p); err != nil {
					return fmt.Errorf("failed to remove %s: %w", p, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")

	return cmd
}
