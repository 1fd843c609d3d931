package orchestrator

// ExitReason explains why a run stopped.
type ExitReason int

const (
	// ReasonDone means every story in the backlog passed.
	ReasonDone ExitReason = iota
	// ReasonStalled means no eligible story remains but at least one is
	// blocked or incomplete.
	ReasonStalled
	// ReasonExhausted means the iteration ceiling was reached first.
	ReasonExhausted
	// ReasonInterrupted means the context was cancelled or a structural
	// error ended the run early.
	ReasonInterrupted
)

func (r ExitReason) String() string {
	switch r {
	case ReasonDone:
		return "DONE"
	case ReasonStalled:
		return "STALLED"
	case ReasonExhausted:
		return "EXHAUSTED"
	case ReasonInterrupted:
		return "INTERRUPTED"
	default:
		return "UNKNOWN"
	}
}

// Report summarizes a finished run.
type Report struct {
	Reason               ExitReason
	IterationsUsed       int
	TotalStories         int
	CompletedStories     int
	BlockedStories       []string
	ReachedMaxIterations bool
}

func (o *Orchestrator) report(reason ExitReason) Report {
	total, completed, _ := o.selector.Counts()
	var blocked []string
	for _, id := range o.store.Blocked() {
		if _, err := o.backlog.Find(id); err == nil {
			blocked = append(blocked, id)
		}
	}
	return Report{
		Reason:               reason,
		IterationsUsed:       o.store.CurrentIteration(),
		TotalStories:         total,
		CompletedStories:     completed,
		BlockedStories:       blocked,
		ReachedMaxIterations: reason == ReasonExhausted,
	}
}
