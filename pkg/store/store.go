// Package store provides the key-value persistence layer backing the
// dashboard cache. The cache treats a Store as an opaque string-keyed
// byte store with last-write-wins semantics and no transactions.
package store

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is the minimal persistence capability the cache layer consumes.
type Store interface {
	// Get returns the stored value for key, or ErrNotFound.
	Get(key string) (string, error)
	// Set writes the value for key, overwriting any previous value.
	Set(key, value string) error
	// Remove deletes the key. Removing a missing key is not an error.
	Remove(key string) error
	// Clear deletes every key.
	Clear() error
}

// Memory is an in-process Store used by tests and as a degraded fallback
// when no database can be opened.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string

	// FailSets makes the next N Set calls fail; used to exercise the
	// cache layer's clear-and-retry write path in tests.
	FailSets int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set implements Store.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSets > 0 {
		m.FailSets--
		return errors.New("store write failed")
	}

	m.data[key] = value
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Clear implements Store.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
