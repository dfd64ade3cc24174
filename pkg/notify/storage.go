package notify

import (
	"context"
	"sync"
)

// PreferenceStorage persists the user's notification preferences.
//
// The Center loads preferences once at construction and saves them on every
// update. Implementations are expected to be cheap and local (key-value
// semantics); see pkg/notify/prefstore for SQLite and Redis backends.
type PreferenceStorage interface {
	// Load returns the persisted preferences, or ErrNoSavedPreferences when
	// nothing has been saved yet.
	Load(ctx context.Context) (Preferences, error)

	// Save overwrites the persisted preferences.
	Save(ctx context.Context, prefs Preferences) error
}

// MemoryPreferenceStorage is an in-memory PreferenceStorage. Suitable for
// development and testing.
type MemoryPreferenceStorage struct {
	mu    sync.RWMutex
	prefs Preferences
	saved bool
}

// NewMemoryPreferenceStorage creates an empty in-memory preference store.
func NewMemoryPreferenceStorage() *MemoryPreferenceStorage {
	return &MemoryPreferenceStorage{}
}

func (s *MemoryPreferenceStorage) Load(ctx context.Context) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return Preferences{}, ErrNoSavedPreferences
	}
	return s.prefs, nil
}

func (s *MemoryPreferenceStorage) Save(ctx context.Context, prefs Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs = prefs
	s.saved = true
	return nil
}
