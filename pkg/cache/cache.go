// Package cache wraps the key-value store with the dashboard's expiry
// semantics. The cache is an optimization and a resilience layer, never a
// source of truth: every failure mode degrades to "treat as uncached".
package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nawka12/moonaroh-com/pkg/store"
)

const (
	// StandardDuration is the freshness window for every category.
	StandardDuration = 5 * time.Minute

	// LegacyMerchDuration is the freshness window when merchandise is
	// read through the standard path in its legacy record shape.
	LegacyMerchDuration = 4 * time.Hour

	// MerchFreshDuration is the window the merchandise pipeline itself
	// accepts stored data without refetching the shop page.
	MerchFreshDuration = 12 * time.Hour
)

// recordKind tags the two persisted record shapes.
type recordKind int

const (
	recordInvalid recordKind = iota
	recordStandard            // {value, timestamp}
	recordLegacyMerch         // {data, timestamp}, merchandise only
)

// record is the decoded form of a stored entry. Exactly one of Value and
// Data is set, which determines the kind.
type record struct {
	Value     json.RawMessage `json:"value,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func (r *record) kind() recordKind {
	switch {
	case len(r.Value) > 0 && string(r.Value) != "null":
		return recordStandard
	case len(r.Data) > 0 && string(r.Data) != "null":
		return recordLegacyMerch
	default:
		return recordInvalid
	}
}

func (r *record) age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(r.Timestamp))
}

// Cache provides expiring reads and fail-soft writes over a Store.
type Cache struct {
	store store.Store
	now   func() time.Time
}

// New creates a cache over the given store.
func New(s store.Store) *Cache {
	return &Cache{store: s, now: time.Now}
}

// NewWithClock creates a cache with an injected clock, for tests.
func NewWithClock(s store.Store, now func() time.Time) *Cache {
	return &Cache{store: s, now: now}
}

// Get returns the cached JSON value for key, or nil on any kind of miss.
// A stale standard record is removed; a legacy merchandise record within
// its longer window is returned but deliberately left in place so it stays
// available as a fallback source. Storage errors are treated as misses.
func (c *Cache) Get(key string) json.RawMessage {
	raw, err := c.store.Get(key)
	if err != nil {
		if err != store.ErrNotFound {
			slog.Warn("Cache read error", "key", key, "error", err)
		}
		return nil
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		slog.Warn("Removing undecodable cache entry", "key", key, "error", err)
		c.remove(key)
		return nil
	}

	switch rec.kind() {
	case recordStandard:
		if rec.Timestamp > 0 && rec.age(c.now()) <= StandardDuration {
			return rec.Value
		}
		slog.Debug("Cache expired", "key", key)
		c.remove(key)
		return nil

	case recordLegacyMerch:
		if key != KeyMerch {
			return nil
		}
		if rec.Timestamp > 0 && rec.age(c.now()) <= LegacyMerchDuration {
			slog.Debug("Using legacy merchandise cache",
				"age_minutes", int(rec.age(c.now()).Minutes()))
			return rec.Data
		}
		slog.Debug("Legacy merchandise cache expired, keeping as fallback")
		return nil

	default:
		c.remove(key)
		return nil
	}
}

// GetInto unmarshals the cached value for key into v. Returns false on a
// miss or when the stored value does not decode into v.
func (c *Cache) GetInto(key string, v any) bool {
	value := c.Get(key)
	if value == nil {
		return false
	}
	if err := json.Unmarshal(value, v); err != nil {
		slog.Warn("Cached value has unexpected shape", "key", key, "error", err)
		return false
	}
	return true
}

// Set persists v under key in the standard {value, timestamp} shape.
// A failed write clears the whole store once and retries; a second
// failure is swallowed, since the in-memory result is returned to the
// caller regardless of persistence.
func (c *Cache) Set(key string, v any) {
	payload, err := json.Marshal(record{
		Value:     mustMarshal(v),
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		slog.Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}

	if err := c.store.Set(key, string(payload)); err != nil {
		slog.Warn("Cache write failed, clearing store and retrying", "key", key, "error", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			slog.Error("Cache clear failed", "error", clearErr)
			return
		}
		if retryErr := c.store.Set(key, string(payload)); retryErr != nil {
			slog.Error("Cache write failed after clear", "key", key, "error", retryErr)
		}
	}
}

// SetLegacyMerch persists v in the legacy {data, timestamp} merchandise
// shape, kept alongside the standard record for backward compatibility.
func (c *Cache) SetLegacyMerch(v any) {
	payload, err := json.Marshal(record{
		Data:      mustMarshal(v),
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		slog.Warn("Failed to encode legacy merchandise entry", "error", err)
		return
	}
	if err := c.store.Set(KeyMerch, string(payload)); err != nil {
		slog.Warn("Legacy merchandise write failed", "error", err)
	}
}

// Fallback returns the stored value for key ignoring freshness entirely:
// a standard record of any age first, then a legacy merchandise record of
// any age. Used when every transport has failed and stale data beats none.
func (c *Cache) Fallback(key string) json.RawMessage {
	raw, err := c.store.Get(key)
	if err != nil {
		return nil
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil
	}

	switch rec.kind() {
	case recordStandard:
		return rec.Value
	case recordLegacyMerch:
		return rec.Data
	default:
		return nil
	}
}

// GetWithin returns the stored value for key if its record, in either
// shape, is younger than maxAge. Never removes the entry. This backs the
// merchandise pipeline's own freshness check, which accepts stored data
// far longer than the standard window before refetching the shop page.
func (c *Cache) GetWithin(key string, maxAge time.Duration) json.RawMessage {
	raw, err := c.store.Get(key)
	if err != nil {
		return nil
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil
	}
	if rec.Timestamp <= 0 || rec.age(c.now()) > maxAge {
		return nil
	}

	switch rec.kind() {
	case recordStandard:
		return rec.Value
	case recordLegacyMerch:
		return rec.Data
	default:
		return nil
	}
}

// Entry describes a stored record for status reporting.
type Entry struct {
	Key       string
	Timestamp time.Time
	Items     int
}

// Status returns the raw state of every cache key, freshness ignored,
// for the cache status summary. Missing or undecodable keys are skipped.
func (c *Cache) Status() []Entry {
	var entries []Entry
	for _, key := range Keys {
		raw, err := c.store.Get(key)
		if err != nil {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}

		payload := rec.Value
		if rec.kind() == recordLegacyMerch {
			payload = rec.Data
		}

		count := 1
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err == nil {
			count = len(items)
		}

		entries = append(entries, Entry{
			Key:       key,
			Timestamp: time.UnixMilli(rec.Timestamp),
			Items:     count,
		})
	}
	return entries
}

func (c *Cache) remove(key string) {
	if err := c.store.Remove(key); err != nil {
		slog.Warn("Failed to remove cache entry", "key", key, "error", err)
	}
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return raw
}
