package memory

import (
	"fmt"
	"sync"

	"github.com/PabloGalante/farum-panel/internal/domain"
)

// TriggerEventStore is an in-memory implementation of domain.TriggerEventStore.
// Records live only as long as their tab; nothing is persisted.
type TriggerEventStore struct {
	mu     sync.RWMutex
	events map[domain.TriggerID]*domain.TriggerEvent
	byTab  map[domain.TabID][]domain.TriggerID
}

func NewTriggerEventStore() *TriggerEventStore {
	return &TriggerEventStore{
		events: make(map[domain.TriggerID]*domain.TriggerEvent),
		byTab:  make(map[domain.TabID][]domain.TriggerID),
	}
}

func (s *TriggerEventStore) Add(ev domain.TriggerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[ev.ID]; exists {
		return fmt.Errorf("add %s: %w", ev.ID, domain.ErrDuplicateTrigger)
	}

	stored := ev
	s.events[ev.ID] = &stored
	if ev.Bound() {
		s.byTab[ev.TabID] = append(s.byTab[ev.TabID], ev.ID)
	}
	return nil
}

// Get returns a copy; callers cannot mutate the stored record.
func (s *TriggerEventStore) Get(id domain.TriggerID) (domain.TriggerEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return domain.TriggerEvent{}, false
	}
	return *ev, true
}

// LastForTab returns the bound event with the highest Seq. Seq reflects the
// order UI events were processed, not the order tabs were bound.
func (s *TriggerEventStore) LastForTab(tabID domain.TabID) (domain.TriggerEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *domain.TriggerEvent
	for _, id := range s.byTab[tabID] {
		ev, ok := s.events[id]
		if !ok {
			continue
		}
		if last == nil || ev.Seq > last.Seq {
			last = ev
		}
	}
	if last == nil {
		return domain.TriggerEvent{}, false
	}
	return *last, true
}

func (s *TriggerEventStore) Rebind(id domain.TriggerID, tabID domain.TabID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return fmt.Errorf("rebind %s: %w", id, domain.ErrTriggerNotFound)
	}
	if ev.Bound() {
		return fmt.Errorf("rebind %s to %s (bound to %s): %w", id, tabID, ev.TabID, domain.ErrTriggerAlreadyBound)
	}

	ev.TabID = tabID
	s.byTab[tabID] = append(s.byTab[tabID], id)
	return nil
}

func (s *TriggerEventStore) Remove(id domain.TriggerID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return
	}
	delete(s.events, id)

	if !ev.Bound() {
		return
	}
	ids := s.byTab[ev.TabID]
	for i, other := range ids {
		if other == id {
			s.byTab[ev.TabID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byTab[ev.TabID]) == 0 {
		delete(s.byTab, ev.TabID)
	}
}

// RemoveAllForTab deletes every event bound to tabID and reports how many went.
func (s *TriggerEventStore) RemoveAllForTab(tabID domain.TabID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byTab[tabID]
	for _, id := range ids {
		delete(s.events, id)
	}
	delete(s.byTab, tabID)
	return len(ids)
}

// Len reports the number of stored events.
func (s *TriggerEventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
