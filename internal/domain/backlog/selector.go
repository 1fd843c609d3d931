package backlog

import "sort"

// Selector is a view over a Backlog plus the current blocked-id set and an
// optional pinned target story. It never mutates the backlog.
type Selector struct {
	backlog *Backlog
	blocked map[string]bool
	target  string // when set, selection is exclusive to this story
}

// NewSelector creates a selector. target may be empty (no pin).
func NewSelector(b *Backlog, target string) *Selector {
	return &Selector{
		backlog: b,
		blocked: make(map[string]bool),
		target:  target,
	}
}

// UpdateBlocked replaces the blocked-id set wholesale. Called once per loop
// pass with the latest ids from the run state.
func (s *Selector) UpdateBlocked(ids []string) {
	blocked := make(map[string]bool, len(ids))
	for _, id := range ids {
		blocked[id] = true
	}
	s.blocked = blocked
}

func (s *Selector) eligible(item *WorkItem) bool {
	return !item.Passes && !s.blocked[item.ID]
}

// NextItem picks the next story to work on. With a pinned target it returns
// that story only while it is eligible, regardless of other stories.
// Otherwise it returns the eligible story with the lowest priority value,
// ties broken by backlog order.
func (s *Selector) NextItem() *WorkItem {
	if s.target != "" {
		item, err := s.backlog.Find(s.target)
		if err != nil || !s.eligible(item) {
			return nil
		}
		return item
	}

	remaining := s.Remaining()
	if len(remaining) == 0 {
		return nil
	}
	return remaining[0]
}

// Remaining returns all eligible stories sorted ascending by priority,
// stable on ties.
func (s *Selector) Remaining() []*WorkItem {
	var items []*WorkItem
	for _, item := range s.backlog.Stories {
		if s.eligible(item) {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority < items[j].Priority
	})
	return items
}

// AllComplete reports whether every story passes.
func (s *Selector) AllComplete() bool {
	for _, item := range s.backlog.Stories {
		if !item.Passes {
			return false
		}
	}
	return true
}

// AllCompleteOrBlocked reports whether every story is either complete or
// blocked, i.e. the loop has nothing left to try.
func (s *Selector) AllCompleteOrBlocked() bool {
	for _, item := range s.backlog.Stories {
		if !item.Passes && !s.blocked[item.ID] {
			return false
		}
	}
	return true
}

// Counts returns total, completed and blocked story counts. Blocked ids that
// no longer exist in the backlog are not counted.
func (s *Selector) Counts() (total, completed, blocked int) {
	total = len(s.backlog.Stories)
	for _, item := range s.backlog.Stories {
		if item.Passes {
			completed++
		}
		if s.blocked[item.ID] {
			blocked++
		}
	}
	return total, completed, blocked
}
