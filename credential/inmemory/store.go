// Package inmemory provides a thread-safe in-memory implementation of
// [credential.Store].
//
// It is intended for use in tests and prototyping. Do not use it in production.
package inmemory

import (
	"context"
	"sync"

	"github.com/hasbyte1/go-passlib/credential"
)

// Store is a thread-safe in-memory implementation of [credential.Store].
type Store struct {
	mu      sync.RWMutex
	records map[string]*credential.Record // keyed by subject
}

// New creates an empty [Store].
func New() *Store {
	return &Store{records: make(map[string]*credential.Record)}
}

// Create stores a copy of rec. Returns [credential.ErrExists] when the
// subject already has a record.
func (s *Store) Create(_ context.Context, rec *credential.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.Subject]; exists {
		return credential.ErrExists
	}
	s.records[rec.Subject] = rec.Clone()
	return nil
}

// Get returns a copy of the record of subject.
func (s *Store) Get(_ context.Context, subject string) (*credential.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[subject]
	if !ok {
		return nil, credential.ErrNotFound
	}
	return rec.Clone(), nil
}

// Update replaces the record of rec.Subject with a copy of rec.
func (s *Store) Update(_ context.Context, rec *credential.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.Subject]; !ok {
		return credential.ErrNotFound
	}
	s.records[rec.Subject] = rec.Clone()
	return nil
}

// Delete removes the record of subject.
func (s *Store) Delete(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[subject]; !ok {
		return credential.ErrNotFound
	}
	delete(s.records, subject)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
