package memory_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-panel/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-panel/internal/domain"
)

func TestAddRejectsDuplicateID(t *testing.T) {
	s := memory.NewTriggerEventStore()

	require.NoError(t, s.Add(domain.TriggerEvent{ID: "a", TabID: "x", Seq: 1}))
	err := s.Add(domain.TriggerEvent{ID: "a", TabID: "y", Seq: 2})
	require.ErrorIs(t, err, domain.ErrDuplicateTrigger)

	ev, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, domain.TabID("x"), ev.TabID)
}

func TestLastForTabFollowsInsertionOrder(t *testing.T) {
	s := memory.NewTriggerEventStore()

	require.NoError(t, s.Add(domain.TriggerEvent{ID: "A", TabID: "X", Seq: 1}))
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "B", TabID: "Y", Seq: 2}))
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "C", TabID: "X", Seq: 3}))

	last, ok := s.LastForTab("X")
	require.True(t, ok)
	assert.Equal(t, domain.TriggerID("C"), last.ID)

	last, ok = s.LastForTab("Y")
	require.True(t, ok)
	assert.Equal(t, domain.TriggerID("B"), last.ID)

	_, ok = s.LastForTab("Z")
	assert.False(t, ok)
}

func TestLastForTabIgnoresBindingOrder(t *testing.T) {
	s := memory.NewTriggerEventStore()

	// Seq 1 is bound after Seq 2 was added already bound.
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "early", Seq: 1}))
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "late", TabID: "X", Seq: 2}))
	require.NoError(t, s.Rebind("early", "X"))

	last, ok := s.LastForTab("X")
	require.True(t, ok)
	assert.Equal(t, domain.TriggerID("late"), last.ID)
}

func TestRebindOnlyOnce(t *testing.T) {
	s := memory.NewTriggerEventStore()
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "t1", Seq: 1}))

	_, ok := s.LastForTab("X")
	assert.False(t, ok, "unbound events must not be visible per tab")

	require.NoError(t, s.Rebind("t1", "X"))
	err := s.Rebind("t1", "Y")
	require.ErrorIs(t, err, domain.ErrTriggerAlreadyBound)

	ev, _ := s.Get("t1")
	assert.Equal(t, domain.TabID("X"), ev.TabID)

	require.ErrorIs(t, s.Rebind("missing", "X"), domain.ErrTriggerNotFound)
}

func TestRemoveAllForTab(t *testing.T) {
	s := memory.NewTriggerEventStore()
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "a", TabID: "X", Seq: 1}))
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "b", TabID: "X", Seq: 2}))
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "c", TabID: "Y", Seq: 3}))
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "d", Seq: 4}))

	assert.Equal(t, 2, s.RemoveAllForTab("X"))

	_, ok := s.Get("a")
	assert.False(t, ok)
	_, ok = s.LastForTab("X")
	assert.False(t, ok)
	_, ok = s.Get("c")
	assert.True(t, ok)
	_, ok = s.Get("d")
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestRemoveSingle(t *testing.T) {
	s := memory.NewTriggerEventStore()
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "a", TabID: "X", Seq: 1}))
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "b", TabID: "X", Seq: 2}))

	s.Remove("b")
	s.Remove("never-existed")

	last, ok := s.LastForTab("X")
	require.True(t, ok)
	assert.Equal(t, domain.TriggerID("a"), last.ID)
}

func TestGetReturnsCopy(t *testing.T) {
	s := memory.NewTriggerEventStore()
	require.NoError(t, s.Add(domain.TriggerEvent{ID: "a", Message: "original"}))

	ev, _ := s.Get("a")
	ev.Message = "mutated"

	again, _ := s.Get("a")
	assert.Equal(t, "original", again.Message)
}

func TestConcurrentAccess(t *testing.T) {
	s := memory.NewTriggerEventStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.TriggerID(string(rune('a'+i%26)) + string(rune('0'+i/26)))
			_ = s.Add(domain.TriggerEvent{ID: id, Seq: uint64(i)})
			_ = s.Rebind(id, "X")
			_, _ = s.LastForTab("X")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	assert.Equal(t, 50, s.RemoveAllForTab("X"))
}
