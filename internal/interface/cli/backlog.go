package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/x0georgiev/gushter/internal/app"
	backlogrepo "github.com/x0georgiev/gushter/internal/infra/repository/backlog"
	"github.com/x0georgiev/gushter/internal/runstate"
)

func newBacklogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Inspect the backlog",
		RunE:  func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newBacklogListCmd())
	cmd.AddCommand(newBacklogValidateCmd())
	return cmd
}

func newBacklogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stories with their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()
			paths := app.ResolvePaths()

			b, err := backlogrepo.NewFileBacklogRepository(fsys, paths.Backlog).Load()
			if err != nil {
				return err
			}

			blocked := map[string]bool{}
			if st, err := runstate.Read(fsys, paths.RunState); err == nil && st != nil && st.Branch == b.Branch {
				for _, id := range st.BlockedStories {
					blocked[id] = true
				}
			}

			w := cmd.OutOrStdout()
			for _, item := range b.Stories {
				state := "pending"
				switch {
				case item.Passes:
					state = "done"
				case blocked[item.ID]:
					state = "blocked"
				}
				fmt.Fprintf(w, "%-8s p%-3d %-12s %s\n", state, item.Priority, item.ID, item.Title)
			}
			return nil
		},
	}
}

func newBacklogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the backlog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()
			paths := app.ResolvePaths()

			b, err := backlogrepo.NewFileBacklogRepository(fsys, paths.Backlog).Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d stories on branch %s\n", len(b.Stories), b.Branch)
			return nil
		},
	}
}
