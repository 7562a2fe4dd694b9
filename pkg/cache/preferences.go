package cache

import (
	"encoding/json"
	"log/slog"
)

// Preferences is the persisted user preference record. It has no
// timestamp and never expires.
type Preferences struct {
	IsMuted bool `json:"isMuted"`
}

// GetPreferences reads the stored preferences, defaulting to the zero
// value when nothing usable is stored.
func (c *Cache) GetPreferences() Preferences {
	raw, err := c.store.Get(KeyPreferences)
	if err != nil {
		return Preferences{}
	}

	var prefs Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		slog.Warn("Failed to decode preferences", "error", err)
		return Preferences{}
	}
	return prefs
}

// SetPreferences persists the preferences. Write failures are logged and
// swallowed.
func (c *Cache) SetPreferences(prefs Preferences) {
	payload, err := json.Marshal(prefs)
	if err != nil {
		slog.Warn("Failed to encode preferences", "error", err)
		return
	}
	if err := c.store.Set(KeyPreferences, string(payload)); err != nil {
		slog.Warn("Failed to save preferences", "error", err)
	}
}
