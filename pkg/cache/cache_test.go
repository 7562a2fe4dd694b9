package cache

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/nawka12/moonaroh-com/pkg/store"
)

// testClock returns a cache over a fresh memory store with a controllable
// clock starting at a fixed instant.
func testClock() (*Cache, *store.Memory, *time.Time) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mem := store.NewMemory()
	c := NewWithClock(mem, func() time.Time { return now })
	return c, mem, &now
}

func TestGet_Miss(t *testing.T) {
	c, _, _ := testClock()

	if got := c.Get(KeyTweets); got != nil {
		t.Errorf("Get() on empty store = %s, expected nil", got)
	}
}

func TestGet_FreshValue(t *testing.T) {
	c, _, _ := testClock()

	c.Set(KeyRecentVideos, []string{"a", "b"})

	var got []string
	if !c.GetInto(KeyRecentVideos, &got) {
		t.Fatal("GetInto() = false, expected hit")
	}
	if len(got) != 2 || got[0] != "a" {
		t.Errorf("GetInto() = %v, expected [a b]", got)
	}
}

func TestGet_Idempotent(t *testing.T) {
	c, _, _ := testClock()

	c.Set(KeyRecentVideos, []int{1, 2, 3})

	first := c.Get(KeyRecentVideos)
	second := c.Get(KeyRecentVideos)
	if string(first) != string(second) {
		t.Errorf("repeated Get() changed result: %s then %s", first, second)
	}
}

func TestGet_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		hit     bool
	}{
		{"just inside window", StandardDuration - time.Millisecond, true},
		{"exactly at window", StandardDuration, true},
		{"just past window", StandardDuration + time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mem, now := testClock()

			c.Set(KeyLiveVideos, []string{"stream"})
			*now = now.Add(tt.elapsed)

			got := c.Get(KeyLiveVideos)
			if (got != nil) != tt.hit {
				t.Errorf("Get() after %v = %s, expected hit=%v", tt.elapsed, got, tt.hit)
			}

			// A stale standard entry is removed from the store.
			if !tt.hit && mem.Len() != 0 {
				t.Errorf("stale entry should be removed, store has %d keys", mem.Len())
			}
		})
	}
}

func TestGet_LegacyMerchShape(t *testing.T) {
	c, mem, now := testClock()

	c.SetLegacyMerch([]string{"towel"})

	// Within the legacy window the data is served through the standard path.
	*now = now.Add(LegacyMerchDuration - time.Minute)
	var got []string
	if !c.GetInto(KeyMerch, &got) || len(got) != 1 {
		t.Fatalf("GetInto() legacy merch = %v, expected [towel]", got)
	}

	// Past the window it is a miss but stays stored as a fallback source.
	*now = now.Add(2 * time.Minute)
	if c.Get(KeyMerch) != nil {
		t.Error("Get() expected miss past legacy window")
	}
	if mem.Len() != 1 {
		t.Errorf("expired legacy entry should be kept, store has %d keys", mem.Len())
	}
	if c.Fallback(KeyMerch) == nil {
		t.Error("Fallback() should still serve the expired legacy entry")
	}
}

func TestGet_LegacyShapeOnlyForMerch(t *testing.T) {
	c, mem, _ := testClock()

	payload := fmt.Sprintf(`{"data":["x"],"timestamp":%d}`, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli())
	if err := mem.Set(KeyTweets, payload); err != nil {
		t.Fatal(err)
	}

	if got := c.Get(KeyTweets); got != nil {
		t.Errorf("Get() legacy shape under non-merch key = %s, expected nil", got)
	}
}

func TestGet_UndecodableEntryRemoved(t *testing.T) {
	c, mem, _ := testClock()

	if err := mem.Set(KeyClips, "not json"); err != nil {
		t.Fatal(err)
	}

	if got := c.Get(KeyClips); got != nil {
		t.Errorf("Get() undecodable = %s, expected nil", got)
	}
	if mem.Len() != 0 {
		t.Error("undecodable entry should be removed")
	}
}

func TestSet_ClearAndRetry(t *testing.T) {
	c, mem, _ := testClock()

	c.Set(KeyClips, []string{"old"})
	mem.FailSets = 1
	c.Set(KeyTweets, []string{"new"})

	// The failed write clears everything, then the retry lands.
	if mem.Len() != 1 {
		t.Fatalf("store has %d keys after clear-and-retry, expected 1", mem.Len())
	}
	var got []string
	if !c.GetInto(KeyTweets, &got) || got[0] != "new" {
		t.Errorf("GetInto() after retry = %v, expected [new]", got)
	}
	if c.Get(KeyClips) != nil {
		t.Error("pre-existing key should be gone after clear")
	}
}

func TestSet_SecondFailureSwallowed(t *testing.T) {
	c, mem, _ := testClock()

	mem.FailSets = 2
	c.Set(KeyTweets, []string{"value"}) // must not panic

	if mem.Len() != 0 {
		t.Errorf("store has %d keys, expected 0 after double failure", mem.Len())
	}
}

func TestFallback_IgnoresFreshness(t *testing.T) {
	c, _, now := testClock()

	c.Set(KeyMerch, []string{"standard"})
	*now = now.Add(48 * time.Hour)

	got := c.Fallback(KeyMerch)
	if got == nil {
		t.Fatal("Fallback() = nil, expected stale standard value")
	}
	var items []string
	if err := json.Unmarshal(got, &items); err != nil || items[0] != "standard" {
		t.Errorf("Fallback() = %s, expected [standard]", got)
	}
}

func TestGetWithin(t *testing.T) {
	tests := []struct {
		name    string
		legacy  bool
		elapsed time.Duration
		hit     bool
	}{
		{"standard shape inside window", false, time.Hour, true},
		{"legacy shape inside window", true, time.Hour, true},
		{"standard shape outside window", false, 13 * time.Hour, false},
		{"legacy shape outside window", true, 13 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mem, now := testClock()

			if tt.legacy {
				c.SetLegacyMerch([]string{"x"})
			} else {
				c.Set(KeyMerch, []string{"x"})
			}
			*now = now.Add(tt.elapsed)

			got := c.GetWithin(KeyMerch, MerchFreshDuration)
			if (got != nil) != tt.hit {
				t.Errorf("GetWithin() after %v = %s, expected hit=%v", tt.elapsed, got, tt.hit)
			}

			// GetWithin never removes, regardless of age.
			if mem.Len() != 1 {
				t.Errorf("GetWithin() should not remove entries, store has %d keys", mem.Len())
			}
		})
	}
}

func TestStatus(t *testing.T) {
	c, _, _ := testClock()

	c.Set(KeyRecentVideos, []string{"a", "b", "c"})
	c.SetLegacyMerch([]string{"towel"})

	entries := c.Status()
	if len(entries) != 2 {
		t.Fatalf("Status() returned %d entries, expected 2", len(entries))
	}

	byKey := make(map[string]Entry)
	for _, e := range entries {
		byKey[e.Key] = e
	}
	if byKey[KeyRecentVideos].Items != 3 {
		t.Errorf("Status() recent items = %d, expected 3", byKey[KeyRecentVideos].Items)
	}
	if byKey[KeyMerch].Items != 1 {
		t.Errorf("Status() merch items = %d, expected 1", byKey[KeyMerch].Items)
	}
}

func TestPreferences_RoundTrip(t *testing.T) {
	c, _, _ := testClock()

	if prefs := c.GetPreferences(); prefs.IsMuted {
		t.Error("GetPreferences() on empty store should default to unmuted")
	}

	c.SetPreferences(Preferences{IsMuted: true})
	if prefs := c.GetPreferences(); !prefs.IsMuted {
		t.Error("GetPreferences() = unmuted, expected muted")
	}
}
