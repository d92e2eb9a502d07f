// Package store holds the in-memory expense list and the session state
// owned by the running client.
package store

import (
	"sync"

	"expensetracker/internal/core"
)

// Store is the ordered, in-memory copy of the remote expense collection.
// Newest records are first. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	records  []core.Expense
	loading  bool
	revision uint64
}

// New returns an empty store in the loading state.
func New() *Store {
	return &Store{loading: true}
}

// Replace swaps the whole collection and clears the loading flag.
func (s *Store) Replace(records []core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.Expense(nil), records...)
	s.loading = false
	s.revision++
}

// Prepend inserts e at the front.
func (s *Store) Prepend(e core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.Expense{e}, s.records...)
	s.revision++
}

// Remove deletes the record with the given id, keeping the order of the
// others. It reports whether a record was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.records {
		if e.ID == id {
			s.records = append(s.records[:i:i], s.records[i+1:]...)
			s.revision++
			return true
		}
	}
	return false
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (core.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.records {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// Clear empties the store without touching the loading flag.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.revision++
}

// Snapshot returns a copy of the records together with the revision they
// belong to.
func (s *Store) Snapshot() ([]core.Expense, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense(nil), s.records...), s.revision
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Loading reports whether a full load is in progress or has not happened yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading != loading {
		s.loading = loading
		s.revision++
	}
}

// Revision increases on every change.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
