package config

import "sync"

// Store holds the current settings and tells subscribers when they change.
// Consumers take a copy at construction and refresh only when notified.
type Store struct {
	mu       sync.RWMutex
	settings Settings
	subs     []func(Settings)
}

// NewStore returns a Store holding s.
func NewStore(s Settings) *Store {
	return &Store{settings: s}
}

// Get returns a copy of the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.settings
}

// Subscribe registers fn to be called with the new settings after every Set.
// fn runs on the goroutine calling Set.
func (st *Store) Subscribe(fn func(Settings)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.subs = append(st.subs, fn)
}

// Set normalizes and stores s, then notifies subscribers.
func (st *Store) Set(s Settings) error {
	if err := s.Normalize(); err != nil {
		return err
	}
	st.mu.Lock()
	st.settings = s
	subs := make([]func(Settings), len(st.subs))
	copy(subs, st.subs)
	st.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
	return nil
}

// Update applies fn to a copy of the current settings and stores the result.
func (st *Store) Update(fn func(*Settings)) error {
	s := st.Get()
	fn(&s)
	return st.Set(s)
}
