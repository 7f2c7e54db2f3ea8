package alerts

import (
	"sync"

	"github.com/geopulse/geopulse-terminal/internal/models"
)

// Store is the in-memory, insertion-ordered list of user alerts.
// Nothing is persisted; the list lives as long as the process.
type Store struct {
	mu     sync.RWMutex
	alerts []models.UserAlert
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Add appends an alert
func (s *Store) Add(a models.UserAlert) {
	s.mu.Lock()
	s.alerts = append(s.alerts, a)
	s.mu.Unlock()
}

// Delete removes the alert with the given id. It reports whether one was found.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i:i], s.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// Get looks up an alert by id
func (s *Store) Get(id string) (models.UserAlert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alerts {
		if a.ID == id {
			return a, true
		}
	}
	return models.UserAlert{}, false
}

// List returns a copy of all alerts in creation order
func (s *Store) List() []models.UserAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UserAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Len returns the number of alerts
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}
