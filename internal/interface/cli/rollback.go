package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/x0georgiev/gushter/internal/app"
	"github.com/x0georgiev/gushter/internal/gitops"
	backlogrepo "github.com/x0georgiev/gushter/internal/infra/repository/backlog"
	"github.com/x0georgiev/gushter/internal/runstate"
)

func newRollbackCmd() *cobra.Command {
	var keepTree bool

	cmd := &cobra.Command{
		Use:   "rollback <story-id>",
		Short: "Discard a story's last attempt and reset the working tree",
		Long: `rollback resets the working tree to the revision recorded at the start
of the story's most recent iteration, marks that iteration rolled back,
and clears the story's blocked state. Safe to repeat.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyID := args[0]
			fsys := afero.NewOsFs()
			paths := app.ResolvePaths()
			log := newLogger()

			b, err := backlogrepo.NewFileBacklogRepository(fsys, paths.Backlog).Load()
			if err != nil {
				return err
			}
			if _, err := b.Find(storyID); err != nil {
				return err
			}

			store := runstate.NewStore(fsys, paths.RunState, nil, log)
			if err := store.Load(b.Branch, 0); err != nil {
				return err
			}

			last := store.LastIterationFor(storyID)
			if last != nil && !keepTree && last.StartRevision != "" {
				git := gitops.NewCLI(".", log)
				if err := git.ResetHard(cmd.Context(), last.StartRevision); err != nil {
					return err
				}
			}

			if err := store.MarkRolledBack(storyID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "story %s rolled back\n", storyID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepTree, "keep-tree", false, "Only update the run record, leave the working tree alone")

	return cmd
}
