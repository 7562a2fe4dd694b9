package holodex

import "time"

// Video statuses as reported by the platform.
const (
	StatusLive      = "live"
	StatusUpcoming  = "upcoming"
	StatusPast      = "past"
	StatusMissing   = "missing"
	StatusAvailable = "available"
)

// RawVideo is the platform's own record for a video, kept verbatim so the
// cached shape stays readable across sessions.
type RawVideo struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Status         string `json:"status,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
	AvailableAt    string `json:"available_at,omitempty"`
	StartScheduled string `json:"start_scheduled,omitempty"`
	StartActual    string `json:"start_actual,omitempty"`
	Channel        struct {
		Name string `json:"name,omitempty"`
	} `json:"channel,omitzero"`
}

// Video is one content item (stream, upload, song, collab or clip).
// The four timestamp fields appear both top-level and nested in Raw; the
// platform populates them inconsistently, so PublishedAt is always derived
// through LatestTime rather than trusted from any single field.
type Video struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	Status      string `json:"status,omitempty"`
	ChannelName string `json:"channelName,omitempty"`

	PublishedAtRaw string `json:"published_at,omitempty"`
	AvailableAt    string `json:"available_at,omitempty"`
	StartScheduled string `json:"start_scheduled,omitempty"`
	StartActual    string `json:"start_actual,omitempty"`

	// PublishedAt is the resolved canonical instant, attached by the
	// aggregation layer before caching.
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	// ScheduledStart is set for upcoming streams.
	ScheduledStart *time.Time `json:"scheduledStart,omitempty"`

	Raw RawVideo `json:"raw"`
}

// fromRaw builds a Video from the platform record, duplicating the
// timestamp fields top-level the way the original client library did.
func fromRaw(raw RawVideo) Video {
	v := Video{
		VideoID:        raw.ID,
		Title:          raw.Title,
		Status:         raw.Status,
		ChannelName:    raw.Channel.Name,
		PublishedAtRaw: raw.PublishedAt,
		AvailableAt:    raw.AvailableAt,
		StartScheduled: raw.StartScheduled,
		StartActual:    raw.StartActual,
		Raw:            raw,
	}
	if raw.Status == StatusUpcoming && raw.StartScheduled != "" {
		if t, err := parseInstant(raw.StartScheduled); err == nil {
			v.ScheduledStart = &t
		}
	}
	return v
}

// LatestTime resolves a video's canonical instant: the maximum across
// every populated candidate field, top-level and nested. Unparsable
// candidates are dropped, never aborting resolution. A video with no
// usable candidate resolves to the epoch start so it sorts last in any
// descending-by-recency ordering.
func LatestTime(v Video) time.Time {
	candidates := []string{
		v.PublishedAtRaw,
		v.AvailableAt,
		v.StartScheduled,
		v.StartActual,
		v.Raw.PublishedAt,
		v.Raw.AvailableAt,
		v.Raw.StartScheduled,
		v.Raw.StartActual,
	}

	latest := time.Unix(0, 0).UTC()
	found := false
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		t, err := parseInstant(candidate)
		if err != nil {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest
}

// parseInstant accepts the timestamp formats the platform emits.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.000Z07:00", s)
}
