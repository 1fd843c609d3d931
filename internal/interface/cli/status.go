package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/x0georgiev/gushter/internal/app"
	backlogrepo "github.com/x0georgiev/gushter/internal/infra/repository/backlog"
	"github.com/x0georgiev/gushter/internal/journal"
	"github.com/x0georgiev/gushter/internal/runstate"
)

type StatusOutput struct {
	Ts        string   `json:"ts"`
	Branch    string   `json:"branch"`
	Iteration int      `json:"iteration"`
	MaxIter   int      `json:"max_iterations"`
	Total     int      `json:"total_stories"`
	Completed int      `json:"completed_stories"`
	Blocked   []string `json:"blocked_stories"`
	LastStory string   `json:"last_story"`
	LastState string   `json:"last_state"`
	Ok        bool     `json:"ok"`
	Error     string   `json:"error"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show run progress and blocked stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()
			paths := app.ResolvePaths()

			out, err := collectStatus(fsys, paths)
			if err != nil {
				if jsonOutput {
					b, _ := json.Marshal(StatusOutput{
						Ts:    time.Now().UTC().Format(time.RFC3339Nano),
						Ok:    false,
						Error: err.Error(),
					})
					fmt.Fprintln(cmd.OutOrStdout(), string(b))
					return nil
				}
				return err
			}

			if jsonOutput {
				b, err := json.Marshal(out)
				if err != nil {
					return fmt.Errorf("marshal json: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Branch     : %s\n", out.Branch)
			fmt.Fprintf(w, "Iteration  : %d/%d\n", out.Iteration, out.MaxIter)
			fmt.Fprintf(w, "Stories    : %d/%d completed\n", out.Completed, out.Total)
			if len(out.Blocked) > 0 {
				fmt.Fprintf(w, "Blocked    : %v\n", out.Blocked)
			}
			if out.LastStory != "" {
				fmt.Fprintf(w, "Last pass  : %s (%s)\n", out.LastStory, out.LastState)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status in JSON format")

	return cmd
}

func collectStatus(fsys afero.Fs, paths app.Paths) (StatusOutput, error) {
	out := StatusOutput{
		Ts: time.Now().UTC().Format(time.RFC3339Nano),
		Ok: true,
	}

	repo := backlogrepo.NewFileBacklogRepository(fsys, paths.Backlog)
	b, err := repo.Load()
	if err != nil {
		return out, err
	}
	out.Branch = b.Branch
	out.Total = len(b.Stories)
	for _, item := range b.Stories {
		if item.Passes {
			out.Completed++
		}
	}

	st, err := runstate.Read(fsys, paths.RunState)
	if err != nil {
		return out, err
	}
	if st != nil && st.Branch == b.Branch {
		out.Iteration = st.CurrentIteration
		out.MaxIter = st.MaxIterations
		out.Blocked = st.BlockedStories
	}

	// Last journal entry, when a journal exists.
	entries, err := journal.NewWriter(fsys, paths.Journal).Read()
	if err == nil && len(entries) > 0 {
		last := entries[len(entries)-1]
		out.LastStory = last.StoryID
		out.LastState = last.Decision
	}

	return out, nil
}
