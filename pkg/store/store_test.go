package store

import (
	"errors"
	"path/filepath"
	"testing"
)

// roundTrip exercises the full Store contract against any implementation.
func roundTrip(t *testing.T, s Store) {
	t.Helper()

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, expected ErrNotFound", err)
	}

	if err := s.Set("a", "one"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, err := s.Get("a"); err != nil || got != "one" {
		t.Errorf("Get(a) = %q, %v", got, err)
	}

	// Overwrite is last-write-wins.
	if err := s.Set("a", "two"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	if got, _ := s.Get("a"); got != "two" {
		t.Errorf("Get(a) after overwrite = %q", got)
	}

	// Removing a missing key is not an error.
	if err := s.Remove("missing"); err != nil {
		t.Errorf("Remove(missing) = %v", err)
	}
	if err := s.Remove("a"); err != nil {
		t.Errorf("Remove(a) = %v", err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(a) after remove error = %v, expected ErrNotFound", err)
	}

	s.Set("b", "1")
	s.Set("c", "2")
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := s.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(b) after clear error = %v, expected ErrNotFound", err)
	}
}

func TestMemory(t *testing.T) {
	roundTrip(t, NewMemory())
}

func TestMemory_FailSets(t *testing.T) {
	m := NewMemory()
	m.FailSets = 1

	if err := m.Set("a", "one"); err == nil {
		t.Fatal("first Set succeeded despite injected failure")
	}
	if err := m.Set("a", "one"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, expected 1", m.Len())
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer db.Close()

	roundTrip(t, db)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := db.Set("key", "value"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if got, err := reopened.Get("key"); err != nil || got != "value" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestSQLite_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "store.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite with missing parent = %v", err)
	}
	db.Close()
}
