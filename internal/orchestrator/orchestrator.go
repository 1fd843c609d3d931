// Package orchestrator drives the end-to-end iteration loop: pick a story,
// run the agent, interpret its output, verify, and either complete the story
// or roll back and retry with backoff.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/x0georgiev/gushter/internal/agent"
	"github.com/x0georgiev/gushter/internal/app"
	"github.com/x0georgiev/gushter/internal/backoff"
	"github.com/x0georgiev/gushter/internal/domain/backlog"
	"github.com/x0georgiev/gushter/internal/domain/iteration"
	"github.com/x0georgiev/gushter/internal/interpret"
	"github.com/x0georgiev/gushter/internal/journal"
	"github.com/x0georgiev/gushter/internal/verify"
)

// simulatedRevision marks iterations that never touched version control.
const simulatedRevision = "SIMULATED"

// Config is the orchestrator's slice of the validated application settings.
type Config struct {
	MaxIterations      int
	MaxRetriesPerStory int
	RetryPolicy        backoff.Policy
	Simulate           bool
	TargetStoryID      string
	IterationPause     time.Duration
	Checks             []verify.Check
}

// BacklogRepository persists the backlog document when a story completes.
type BacklogRepository interface {
	Save(*backlog.Backlog) error
}

// RunStateStore is the durable iteration-tracking boundary.
type RunStateStore interface {
	StartIteration(storyID, startRevision string) (iteration.Iteration, error)
	CompleteIteration(storyID, endRevision string) error
	FailIteration(storyID, errMsg string, maxRetries int) (iteration.Iteration, error)
	Blocked() []string
	CanStartNewIteration() bool
	CurrentIteration() int
	MaxIterations() int
}

// GitOps is the version-control capability the loop uses directly.
type GitOps interface {
	CurrentRevision(ctx context.Context) (string, error)
	ResetHard(ctx context.Context, revision string) error
}

// Options holds the orchestrator's explicit dependencies.
type Options struct {
	Config        Config
	Backlog       *backlog.Backlog
	BacklogRepo   BacklogRepository
	Store         RunStateStore
	Agent         agent.Runner
	Git           GitOps
	Verifier      *verify.Runner
	Journal       *journal.Writer
	FS            afero.Fs
	HealthPath    string
	LearningsPath string
	Logger        app.Logger

	// Sleep is injectable for tests; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Orchestrator composes the loop's collaborators. One instance drives one run.
type Orchestrator struct {
	cfg      Config
	backlog  *backlog.Backlog
	repo     BacklogRepository
	store    RunStateStore
	selector *backlog.Selector
	agent    agent.Runner
	git      GitOps
	verifier *verify.Runner
	journal  *journal.Writer
	fs       afero.Fs
	health   string
	learn    string
	log      app.Logger
	sleep    func(time.Duration)
}

// New creates an orchestrator from explicit options.
func New(opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = app.NopLogger()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Orchestrator{
		cfg:      opts.Config,
		backlog:  opts.Backlog,
		repo:     opts.BacklogRepo,
		store:    opts.Store,
		selector: backlog.NewSelector(opts.Backlog, opts.Config.TargetStoryID),
		agent:    opts.Agent,
		git:      opts.Git,
		verifier: opts.Verifier,
		journal:  opts.Journal,
		fs:       opts.FS,
		health:   opts.HealthPath,
		learn:    opts.LearningsPath,
		log:      log,
		sleep:    sleep,
	}
}

// Run executes the loop until all stories are complete or blocked, the
// iteration ceiling is reached, or the context is cancelled. Structural
// errors (missing live iterations, unwritable state) propagate immediately.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	for {
		if err := ctx.Err(); err != nil {
			return o.report(ReasonInterrupted), err
		}

		// Blocked stories may have been added on the previous pass.
		o.selector.UpdateBlocked(o.store.Blocked())

		if o.selector.AllCompleteOrBlocked() {
			if o.selector.AllComplete() {
				return o.report(ReasonDone), nil
			}
			return o.report(ReasonStalled), nil
		}

		if !o.store.CanStartNewIteration() {
			return o.report(ReasonExhausted), nil
		}

		item := o.selector.NextItem()
		if item == nil {
			// A pinned target that is already complete or blocked ends the
			// run even when other stories remain eligible.
			if o.selector.AllComplete() {
				return o.report(ReasonDone), nil
			}
			return o.report(ReasonStalled), nil
		}

		done, err := o.runIteration(ctx, item)
		if err != nil {
			return o.report(ReasonInterrupted), err
		}
		if done {
			return o.report(ReasonDone), nil
		}
	}
}

// runIteration executes one pass of the loop body for one story. It returns
// done=true when the whole backlog completed during this pass.
func (o *Orchestrator) runIteration(ctx context.Context, item *backlog.WorkItem) (bool, error) {
	passStart := time.Now()

	startRev := simulatedRevision
	if !o.cfg.Simulate {
		rev, err := o.git.CurrentRevision(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to read current revision: %w", err)
		}
		startRev = rev
	}

	it, err := o.store.StartIteration(item.ID, startRev)
	if err != nil {
		return false, err
	}
	o.log.Info("iteration %d/%d: story %s %q (attempt %d)",
		o.store.CurrentIteration(), o.store.MaxIterations(), item.ID, item.Title, it.RetryCount+1)

	raw, agentErr := o.agent.Run(ctx, agent.Request{
		StoryID: item.ID,
		Prompt:  BuildPrompt(item, o.readLearnings()),
	})
	parsed := interpret.Interpret(raw)

	var (
		decision   string
		failMsg    string
		maxRetries = o.cfg.MaxRetriesPerStory
		allDone    bool
	)

	switch {
	case agentErr != nil:
		// A process-level failure is recoverable by retry, like any
		// agent-reported failure.
		failMsg = agentErr.Error()

	case parsed.IsBlocked():
		// Explicit override from the agent: block on this very failure,
		// regardless of how many retries remain.
		maxRetries = 1
		failMsg = parsed.ErrorMessage()
		if failMsg == "" {
			failMsg = "agent signaled blocked"
		}

	case parsed.IsComplete():
		if err := o.completeStory(ctx, item, parsed); err != nil {
			return false, err
		}
		decision = string(iteration.StatusCompleted)
		allDone = o.selector.AllComplete()

	case parsed.IsSuccess():
		vres := o.verifier.Run(ctx, o.cfg.Checks)
		if vres.OK {
			if err := o.completeStory(ctx, item, parsed); err != nil {
				return false, err
			}
			decision = string(iteration.StatusCompleted)
		} else {
			failMsg = "verification failed"
		}

	default:
		failMsg = parsed.ErrorMessage()
	}

	if failMsg != "" {
		updated, err := o.rollbackAndRetry(ctx, it, item.ID, failMsg, maxRetries)
		if err != nil {
			return false, err
		}
		decision = string(updated.Status)
	}

	o.record(item.ID, decision, failMsg, parsed, passStart)

	if allDone {
		return true, nil
	}

	// Brief pause between successful iterations so the agent is not
	// hammered back to back. Failures already waited out their backoff.
	if decision == string(iteration.StatusCompleted) && !o.cfg.Simulate && o.cfg.IterationPause > 0 {
		o.sleep(o.cfg.IterationPause)
	}
	return false, nil
}

// completeStory marks the story done, persists the backlog, and closes the
// live iteration with the ending revision.
func (o *Orchestrator) completeStory(ctx context.Context, item *backlog.WorkItem, parsed interpret.ParsedOutput) error {
	if err := o.backlog.MarkComplete(item.ID); err != nil {
		return err
	}
	if err := o.repo.Save(o.backlog); err != nil {
		return fmt.Errorf("failed to persist backlog: %w", err)
	}

	endRev := simulatedRevision
	if !o.cfg.Simulate {
		rev, err := o.git.CurrentRevision(ctx)
		if err != nil {
			return fmt.Errorf("failed to read ending revision: %w", err)
		}
		endRev = rev
	}
	if err := o.store.CompleteIteration(item.ID, endRev); err != nil {
		return err
	}

	if parsed.Structured != nil {
		o.appendLearnings(item.ID, parsed.Structured.Learnings)
	}
	o.log.Info("story %s completed", item.ID)
	return nil
}

// rollbackAndRetry resets the working tree to the iteration's starting
// revision, records the failure, and waits out the backoff delay unless the
// story just became blocked.
func (o *Orchestrator) rollbackAndRetry(ctx context.Context, it iteration.Iteration, storyID, msg string, maxRetries int) (iteration.Iteration, error) {
	if !o.cfg.Simulate {
		if err := o.git.ResetHard(ctx, it.StartRevision); err != nil {
			return iteration.Iteration{}, fmt.Errorf("rollback failed: %w", err)
		}
	}

	updated, err := o.store.FailIteration(storyID, msg, maxRetries)
	if err != nil {
		return iteration.Iteration{}, err
	}

	o.log.Warn("story %s attempt %d failed: %s", storyID, updated.RetryCount, msg)
	if updated.Status == iteration.StatusBlocked {
		o.log.Warn("story %s is blocked after %d failed attempts", storyID, updated.RetryCount)
		return updated, nil
	}

	delay := backoff.Delay(updated.RetryCount, o.cfg.RetryPolicy)
	o.log.Info("retrying story %s in %v", storyID, delay)
	if !o.cfg.Simulate {
		o.sleep(delay)
	}
	return updated, nil
}

// record writes the journal entry and health file for one pass.
// Both are best-effort.
func (o *Orchestrator) record(storyID, decision, failMsg string, parsed interpret.ParsedOutput, passStart time.Time) {
	var artifacts []string
	if parsed.Structured != nil {
		artifacts = parsed.Structured.FilesChanged
	}
	if o.journal != nil {
		err := o.journal.Append(journal.Entry{
			Iteration: o.store.CurrentIteration(),
			StoryID:   storyID,
			Decision:  decision,
			ElapsedMs: time.Since(passStart).Milliseconds(),
			Error:     failMsg,
			Artifacts: artifacts,
		})
		if err != nil {
			o.log.Warn("failed to append journal entry: %v", err)
		}
	}
	if o.health != "" {
		err := app.WriteHealth(o.fs, o.health, o.store.CurrentIteration(), storyID, failMsg == "", failMsg)
		if err != nil {
			o.log.Warn("failed to write health file: %v", err)
		}
	}
}
