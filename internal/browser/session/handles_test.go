package session

import (
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_WorldCache(t *testing.T) {
	s, cancel := detachedSession(t)
	defer cancel()

	_, ok := s.cachedWorld("F1", "L1")
	require.False(t, ok)

	s.storeWorld("F1", "L1", 7)
	id, ok := s.cachedWorld("F1", "L1")
	require.True(t, ok)
	assert.Equal(t, runtime.ExecutionContextID(7), id)

	_, ok = s.cachedWorld("F1", "L2")
	assert.False(t, ok, "a new document in the frame needs a new world")

	s.storeWorld("F1", "L2", 9)
	_, ok = s.cachedWorld("F1", "L1")
	assert.False(t, ok, "the earlier document's world is replaced")
	assert.Len(t, s.handles.worlds, 1)

	s.forgetWorld("F1", 7)
	_, ok = s.cachedWorld("F1", "L2")
	assert.True(t, ok, "forgetting a stale id keeps the current world")
	s.forgetWorld("F1", 9)
	_, ok = s.cachedWorld("F1", "L2")
	assert.False(t, ok)
}

func TestSession_NextGroup(t *testing.T) {
	s, cancel := detachedSession(t)
	defer cancel()

	first, previous := s.nextGroup()
	assert.Empty(t, previous)
	assert.Contains(t, first, s.ID())

	second, previous := s.nextGroup()
	assert.Equal(t, first, previous)
	assert.NotEqual(t, first, second)

	_, previous = s.nextGroup()
	assert.Equal(t, second, previous)
}
