package backlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectorBacklog() *Backlog {
	return &Backlog{
		Branch: "main",
		Stories: []*WorkItem{
			{ID: "S-1", Title: "one", Priority: 2},
			{ID: "S-2", Title: "two", Priority: 1},
			{ID: "S-3", Title: "three", Priority: 2},
		},
	}
}

func TestSelector_NextItem_LowestPriorityFirst(t *testing.T) {
	s := NewSelector(selectorBacklog(), "")

	item := s.NextItem()
	require.NotNil(t, item)
	assert.Equal(t, "S-2", item.ID)
}

func TestSelector_NextItem_TiesKeepBacklogOrder(t *testing.T) {
	b := selectorBacklog()
	s := NewSelector(b, "")
	require.NoError(t, b.MarkComplete("S-2"))

	// S-1 and S-3 both have priority 2; S-1 comes first in the document.
	item := s.NextItem()
	require.NotNil(t, item)
	assert.Equal(t, "S-1", item.ID)
}

func TestSelector_NextItem_SkipsBlockedAndCompleted(t *testing.T) {
	b := selectorBacklog()
	s := NewSelector(b, "")
	require.NoError(t, b.MarkComplete("S-2"))
	s.UpdateBlocked([]string{"S-1"})

	item := s.NextItem()
	require.NotNil(t, item)
	assert.Equal(t, "S-3", item.ID)

	s.UpdateBlocked([]string{"S-1", "S-3"})
	assert.Nil(t, s.NextItem())
}

func TestSelector_PinnedTargetIsExclusive(t *testing.T) {
	b := selectorBacklog()
	s := NewSelector(b, "S-3")

	// S-2 has lower priority but the pin wins.
	item := s.NextItem()
	require.NotNil(t, item)
	assert.Equal(t, "S-3", item.ID)

	// A blocked pin yields nothing even though others are eligible.
	s.UpdateBlocked([]string{"S-3"})
	assert.Nil(t, s.NextItem())

	// Same for a completed pin.
	s.UpdateBlocked(nil)
	require.NoError(t, b.MarkComplete("S-3"))
	assert.Nil(t, s.NextItem())
}

func TestSelector_PinnedTargetMissing(t *testing.T) {
	s := NewSelector(selectorBacklog(), "S-404")
	assert.Nil(t, s.NextItem())
}

func TestSelector_Remaining(t *testing.T) {
	b := selectorBacklog()
	s := NewSelector(b, "")

	ids := func() []string {
		var out []string
		for _, item := range s.Remaining() {
			out = append(out, item.ID)
		}
		return out
	}

	assert.Equal(t, []string{"S-2", "S-1", "S-3"}, ids())

	s.UpdateBlocked([]string{"S-2"})
	assert.Equal(t, []string{"S-1", "S-3"}, ids())
}

func TestSelector_AllCompleteAndAllCompleteOrBlocked(t *testing.T) {
	b := selectorBacklog()
	s := NewSelector(b, "")

	assert.False(t, s.AllComplete())
	assert.False(t, s.AllCompleteOrBlocked())

	require.NoError(t, b.MarkComplete("S-1"))
	require.NoError(t, b.MarkComplete("S-2"))
	s.UpdateBlocked([]string{"S-3"})

	assert.False(t, s.AllComplete())
	assert.True(t, s.AllCompleteOrBlocked())

	require.NoError(t, b.MarkComplete("S-3"))
	assert.True(t, s.AllComplete())
}

func TestSelector_CountsIgnoreStaleBlockedIDs(t *testing.T) {
	b := selectorBacklog()
	s := NewSelector(b, "")
	require.NoError(t, b.MarkComplete("S-1"))
	s.UpdateBlocked([]string{"S-2", "S-GONE"})

	total, completed, blocked := s.Counts()
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, blocked)
}
