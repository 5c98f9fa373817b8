package publish

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bbernstein/tidecharts/internal/models"
)

// Store keeps the latest artifact per slot in memory. Artifacts are replaced
// whole under the write lock, so readers never see a partial update.
type Store struct {
	mu        sync.RWMutex
	artifacts map[models.Slot]models.RenderedArtifact
	updated   map[string]bool
}

var _ Publisher = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		artifacts: make(map[models.Slot]models.RenderedArtifact),
		updated:   make(map[string]bool),
	}
}

func (s *Store) Publish(ctx context.Context, slot models.Slot, artifact models.RenderedArtifact) error {
	if slot.StationID == "" {
		return fmt.Errorf("slot has no station")
	}
	if len(artifact.Bytes) == 0 {
		return fmt.Errorf("empty artifact for %s", slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[slot] = artifact
	return nil
}

func (s *Store) MarkUpdated(stationID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated[stationID] = ok
}

// Get returns the latest artifact for slot.
func (s *Store) Get(slot models.Slot) (models.RenderedArtifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	artifact, ok := s.artifacts[slot]
	return artifact, ok
}

// IsFresh reports whether slot has an artifact and its station's last
// refresh succeeded.
func (s *Store) IsFresh(slot models.Slot) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.artifacts[slot]
	return ok && s.updated[slot.StationID]
}

// Slots lists the published slots of a station in a stable order.
func (s *Store) Slots(stationID string) []models.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slots []models.Slot
	for slot := range s.artifacts {
		if slot.StationID == stationID {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].String() < slots[j].String()
	})
	return slots
}

// Forget drops everything published for a station.
func (s *Store) Forget(stationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := range s.artifacts {
		if slot.StationID == stationID {
			delete(s.artifacts, slot)
		}
	}
	delete(s.updated, stationID)
}
