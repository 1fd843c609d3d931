package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/x0georgiev/gushter/internal/app"
	backlogrepo "github.com/x0georgiev/gushter/internal/infra/repository/backlog"
	"github.com/x0georgiev/gushter/internal/runstate"
)

func newUnblockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <story-id>",
		Short: "Clear a story's blocked state so the next run retries it",
		Args:  cobra.ExactArgs(1),
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
			if err := store.UnblockStory(storyID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "story %s unblocked\n", storyID)
			return nil
		},
	}
}
