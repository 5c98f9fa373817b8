package coordinator

import (
	"sort"
	"sync"

	"github.com/bbernstein/tidecharts/internal/models"
)

// Registry indexes coordinators by station id.
type Registry struct {
	mu           sync.RWMutex
	coordinators map[string]*Coordinator
}

func NewRegistry() *Registry {
	return &Registry{coordinators: make(map[string]*Coordinator)}
}

func (r *Registry) Add(c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coordinators[c.station.ID] = c
}

func (r *Registry) Remove(stationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.coordinators, stationID)
}

func (r *Registry) Get(stationID string) (*Coordinator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.coordinators[stationID]
	return c, ok
}

// List returns the coordinators ordered by station id.
func (r *Registry) List() []*Coordinator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Coordinator, 0, len(r.coordinators))
	for _, c := range r.coordinators {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].station.ID < list[j].station.ID
	})
	return list
}

// Status returns the current status of a registered station.
func (r *Registry) Status(stationID string) (models.StationStatus, bool) {
	c, ok := r.Get(stationID)
	if !ok {
		return models.StationStatus{}, false
	}
	return c.Status(), true
}
