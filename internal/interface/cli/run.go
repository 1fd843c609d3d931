package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/x0georgiev/gushter/internal/agent"
	"github.com/x0georgiev/gushter/internal/app"
	"github.com/x0georgiev/gushter/internal/backoff"
	"github.com/x0georgiev/gushter/internal/gitops"
	infrafs "github.com/x0georgiev/gushter/internal/infra/fs"
	backlogrepo "github.com/x0georgiev/gushter/internal/infra/repository/backlog"
	"github.com/x0georgiev/gushter/internal/journal"
	"github.com/x0georgiev/gushter/internal/orchestrator"
	"github.com/x0georgiev/gushter/internal/runstate"
	"github.com/x0georgiev/gushter/internal/verify"
)

func newRunCmd() *cobra.Command {
	var (
		maxIterations int
		simulate      bool
		storyID       string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the iteration loop against the backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			fsys := afero.NewOsFs()
			paths := app.ResolvePaths()
			cfg := globalConfig

			effMaxIterations := cfg.MaxIterations()
			if cmd.Flags().Changed("max-iterations") {
				effMaxIterations = maxIterations
			}
			if effMaxIterations <= 0 {
				return fmt.Errorf("max iterations must be positive, got %d", effMaxIterations)
			}
			effSimulate := cfg.Simulate() || simulate
			target := cfg.TargetStoryID()
			if storyID != "" {
				target = storyID
			}

			if err := fsys.MkdirAll(paths.Var, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", paths.Var, err)
			}

			lock, err := infrafs.AcquireRunLock(paths.Lock)
			if err != nil {
				return err
			}
			defer lock.Release()

			repo := backlogrepo.NewFileBacklogRepository(fsys, paths.Backlog)
			b, err := repo.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			git := gitops.NewCLI(".", log)
			if !effSimulate {
				if err := git.EnsureBranch(ctx, b.Branch); err != nil {
					return err
				}
			}

			var archive runstate.Archive
			if cfg.Archive() {
				a, err := runstate.OpenSQLiteArchive(paths.Archive)
				if err != nil {
					log.Warn("iteration archive unavailable: %v", err)
				} else {
					archive = a
					defer a.Close()
				}
			}

			store := runstate.NewStore(fsys, paths.RunState, archive, log)
			if err := store.Load(b.Branch, effMaxIterations); err != nil {
				return err
			}

			var runner agent.Runner
			if effSimulate {
				runner = agent.NewSimulateRunner()
			} else {
				runner = agent.NewClaudeCLIRunner(cfg.AgentBin(), cfg.AgentTimeout(), log)
			}

			checks, err := verify.LoadChecks(fsys, paths.Checks)
			if err != nil {
				return err
			}

			o := orchestrator.New(orchestrator.Options{
				Config: orchestrator.Config{
					MaxIterations:      effMaxIterations,
					MaxRetriesPerStory: cfg.MaxRetriesPerStory(),
					RetryPolicy: backoff.Policy{
						InitialDelay: cfg.RetryInitialDelay(),
						Multiplier:   cfg.RetryMultiplier(),
						Ceiling:      cfg.RetryCeiling(),
					},
					Simulate:       effSimulate,
					TargetStoryID:  target,
					IterationPause: cfg.IterationPause(),
					Checks:         checks,
				},
				Backlog:       b,
				BacklogRepo:   repo,
				Store:         store,
				Agent:         runner,
				Git:           git,
				Verifier:      verify.NewRunner(verify.ShellExecutor{}, log),
				Journal:       journal.NewWriter(fsys, paths.Journal),
				FS:            fsys,
				HealthPath:    paths.Health,
				LearningsPath: paths.Learnings,
				Logger:        log,
			})

			started := time.Now()
			report, err := o.Run(ctx)
			printReport(cmd, report, time.Since(started))
			if err != nil {
				return err
			}
			if report.Reason == orchestrator.ReasonStalled {
				// Non-zero exit so wrapping scripts notice human input is needed.
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Override the iteration ceiling for this run")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "Use a synthetic agent and skip git operations")
	cmd.Flags().StringVar(&storyID, "story", "", "Pin the run to a single story ID")

	return cmd
}

func printReport(cmd *cobra.Command, r orchestrator.Report, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Result     : %s\n", r.Reason)
	fmt.Fprintf(out, "Iterations : %d\n", r.IterationsUsed)
	fmt.Fprintf(out, "Stories    : %d/%d completed\n", r.CompletedStories, r.TotalStories)
	if len(r.BlockedStories) > 0 {
		fmt.Fprintf(out, "Blocked    : %s\n", strings.Join(r.BlockedStories, ", "))
	}
	if r.ReachedMaxIterations {
		fmt.Fprintf(out, "Note       : iteration ceiling reached; run again to continue\n")
	}
	fmt.Fprintf(out, "Elapsed    : %s\n", elapsed.Round(time.Second))
}
