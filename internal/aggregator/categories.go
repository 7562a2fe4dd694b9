package aggregator

import (
	"context"
	"sort"
	"strings"

	"github.com/nawka12/moonaroh-com/internal/holodex"
	"github.com/nawka12/moonaroh-com/internal/songs"
)

// Platform topic filters for music uploads.
const (
	topicOriginalSong = "Original_Song"
	topicMusicCover   = "Music_Cover"
)

func (a *Aggregator) fetchLive(ctx context.Context) ([]holodex.Video, error) {
	videos, err := a.videos.LiveVideos(ctx, a.channelID)
	if err != nil {
		return nil, err
	}
	return dropMissing(videos), nil
}

func (a *Aggregator) fetchRecent(ctx context.Context) ([]holodex.Video, error) {
	return a.channelListing(ctx, "videos")
}

func (a *Aggregator) fetchCollabs(ctx context.Context) ([]holodex.Video, error) {
	return a.channelListing(ctx, "collabs")
}

func (a *Aggregator) fetchClips(ctx context.Context) ([]holodex.Video, error) {
	return a.channelListing(ctx, "clips")
}

func (a *Aggregator) channelListing(ctx context.Context, kind string) ([]holodex.Video, error) {
	videos, err := a.videos.VideosByChannel(ctx, a.channelID, kind, holodex.Options{Limit: 15})
	if err != nil {
		return nil, err
	}
	return dropMissing(videos), nil
}

// fetchOriginals combines the talent's own original-song uploads with
// originals that mention the channel, curates out known duplicates, and
// collapses the rest to one entry per song.
func (a *Aggregator) fetchOriginals(ctx context.Context) ([]holodex.Video, error) {
	own, err := a.videos.VideosByChannel(ctx, a.channelID, "videos", holodex.Options{
		Limit: 50,
		Topic: topicOriginalSong,
	})
	if err != nil {
		return nil, err
	}
	mentioned, err := a.videos.Videos(ctx, holodex.Options{
		MentionedChannelID: a.channelID,
		Topic:              topicOriginalSong,
		Limit:              25,
		Sort:               "available_at",
		Order:              "desc",
	})
	if err != nil {
		return nil, err
	}

	combined := make([]holodex.Video, 0, len(own)+len(mentioned))
	for _, v := range append(own, mentioned...) {
		if v.Status == holodex.StatusMissing || a.excluded[v.VideoID] {
			continue
		}
		combined = append(combined, v)
	}
	return songs.Dedupe(combined), nil
}

// fetchCovers combines the talent's own covers with covers that mention the
// channel, applies the title blocklist, and injects the hand-curated
// non-tracked collaborations. Covers are never deduplicated; each upload is
// a distinct performance.
func (a *Aggregator) fetchCovers(ctx context.Context) ([]holodex.Video, error) {
	own, err := a.videos.Videos(ctx, holodex.Options{
		ChannelID: a.channelID,
		Topic:     topicMusicCover,
		Limit:     25,
		Sort:      "available_at",
		Order:     "desc",
	})
	if err != nil {
		return nil, err
	}
	mentioned, err := a.videos.Videos(ctx, holodex.Options{
		MentionedChannelID: a.channelID,
		Topic:              topicMusicCover,
		Limit:              25,
		Sort:               "available_at",
		Order:              "desc",
	})
	if err != nil {
		return nil, err
	}

	covers := make([]holodex.Video, 0, len(own)+len(mentioned)+len(a.curation.CoverCollabs))
	for _, v := range append(own, mentioned...) {
		if v.Status == holodex.StatusMissing || a.blocked(v.Title) {
			continue
		}
		covers = append(covers, v)
	}
	for _, collab := range a.curation.CoverCollabs {
		covers = append(covers, collab.video())
	}

	sort.SliceStable(covers, func(i, j int) bool {
		return holodex.LatestTime(covers[i]).After(holodex.LatestTime(covers[j]))
	})
	return covers, nil
}

func (a *Aggregator) blocked(title string) bool {
	for _, entry := range a.curation.CoverBlocklist {
		if strings.Contains(title, entry) {
			return true
		}
	}
	return false
}

func dropMissing(videos []holodex.Video) []holodex.Video {
	kept := videos[:0]
	for _, v := range videos {
		if v.Status == holodex.StatusMissing {
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

// video renders a curated collab entry in the shape the platform queries
// produce, so it sorts and displays like any other cover.
func (c CoverCollab) video() holodex.Video {
	raw := holodex.RawVideo{
		ID:          c.VideoID,
		Title:       c.Title,
		Status:      holodex.StatusAvailable,
		PublishedAt: c.PublishedAt,
		AvailableAt: c.PublishedAt,
	}
	raw.Channel.Name = c.ChannelName
	return holodex.Video{
		VideoID:        c.VideoID,
		Title:          c.Title,
		Status:         holodex.StatusAvailable,
		ChannelName:    c.ChannelName,
		PublishedAtRaw: c.PublishedAt,
		AvailableAt:    c.PublishedAt,
		Raw:            raw,
	}
}
