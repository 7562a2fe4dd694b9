// Package aggregator orchestrates a full dashboard refresh: every content
// category is resolved concurrently through the shared cache, and a failing
// upstream only blanks its own category.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nawka12/moonaroh-com/internal/holodex"
	"github.com/nawka12/moonaroh-com/internal/merch"
	"github.com/nawka12/moonaroh-com/internal/nitter"
	"github.com/nawka12/moonaroh-com/pkg/cache"
)

// recentLimit caps the recent-upload and collab lists shown on the
// dashboard.
const recentLimit = 6

// Curation holds the manual content adjustments applied on top of the
// platform queries.
type Curation struct {
	// ExcludedVideoIDs are duplicate uploads the ranking rules cannot
	// resolve on their own.
	ExcludedVideoIDs []string
	// CoverBlocklist drops covers whose title contains any entry.
	CoverBlocklist []string
	// CoverCollabs are covers hosted on channels the platform does not
	// track, injected into the cover list by hand.
	CoverCollabs []CoverCollab
}

// CoverCollab is one hand-curated cover entry.
type CoverCollab struct {
	VideoID     string
	Title       string
	ChannelName string
	PublishedAt string
}

// Status is the assembled dashboard state for one refresh pass.
type Status struct {
	Live      []holodex.Video `json:"live"`
	Recent    []holodex.Video `json:"recent"`
	Collabs   []holodex.Video `json:"collabs"`
	Clips     []holodex.Video `json:"clips"`
	Originals []holodex.Video `json:"originalSongs"`
	Covers    []holodex.Video `json:"coverSongs"`
	Tweets    nitter.Result   `json:"tweets"`
	Merch     []merch.Item    `json:"merch"`

	// Errors maps a category name to its failure; absent categories
	// succeeded.
	Errors map[string]string `json:"errors,omitempty"`
	// LatestActivity is the newest upload, collab or original post, used
	// for the time-since-last-activity counter.
	LatestActivity *time.Time `json:"latestActivity,omitempty"`
}

// Aggregator drives a refresh pass across all content sources.
type Aggregator struct {
	cache  *cache.Cache
	videos holodex.Client
	social *nitter.Scraper
	goods  *merch.Service

	channelID string
	curation  Curation
	excluded  map[string]bool
}

// New builds an aggregator over the given sources.
func New(videos holodex.Client, social *nitter.Scraper, goods *merch.Service, c *cache.Cache, channelID string, curation Curation) *Aggregator {
	excluded := make(map[string]bool, len(curation.ExcludedVideoIDs))
	for _, id := range curation.ExcludedVideoIDs {
		excluded[id] = true
	}
	return &Aggregator{
		cache:     c,
		videos:    videos,
		social:    social,
		goods:     goods,
		channelID: channelID,
		curation:  curation,
		excluded:  excluded,
	}
}

// Check runs one full refresh pass. All categories run concurrently; a
// category error is recorded in Status.Errors and leaves that category
// empty.
func (a *Aggregator) Check(ctx context.Context) Status {
	var status Status
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = make(map[string]string)
	)

	run := func(name string, f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(); err != nil {
				slog.Warn("Category fetch failed", "category", name, "error", err)
				mu.Lock()
				errs[name] = err.Error()
				mu.Unlock()
			}
		}()
	}

	run("live", func() (err error) {
		status.Live, err = a.videoCategory(ctx, cache.KeyLiveVideos, a.fetchLive)
		return err
	})
	run("recent", func() (err error) {
		status.Recent, err = a.videoCategory(ctx, cache.KeyRecentVideos, a.fetchRecent)
		return err
	})
	run("collabs", func() (err error) {
		status.Collabs, err = a.videoCategory(ctx, cache.KeyCollabs, a.fetchCollabs)
		return err
	})
	run("clips", func() (err error) {
		status.Clips, err = a.videoCategory(ctx, cache.KeyClips, a.fetchClips)
		return err
	})
	run("originals", func() (err error) {
		status.Originals, err = a.videoCategory(ctx, cache.KeyOriginalSongs, a.fetchOriginals)
		return err
	})
	run("covers", func() (err error) {
		status.Covers, err = a.videoCategory(ctx, cache.KeyCoverSongs, a.fetchCovers)
		return err
	})
	run("tweets", func() error {
		status.Tweets = a.fetchTweets(ctx)
		return nil
	})
	run("merch", func() error {
		status.Merch = a.goods.Get(ctx)
		return nil
	})
	wg.Wait()

	status.Recent = trimStreams(status.Recent)
	status.Collabs = trimStreams(status.Collabs)
	if len(errs) > 0 {
		status.Errors = errs
	}
	status.LatestActivity = latestActivity(status)
	return status
}

// Tweets resolves only the social category.
func (a *Aggregator) Tweets(ctx context.Context) nitter.Result {
	return a.fetchTweets(ctx)
}

// Merch resolves only the merchandise category.
func (a *Aggregator) Merch(ctx context.Context) []merch.Item {
	return a.goods.Get(ctx)
}

// Originals resolves only the original-song category.
func (a *Aggregator) Originals(ctx context.Context) ([]holodex.Video, error) {
	return a.videoCategory(ctx, cache.KeyOriginalSongs, a.fetchOriginals)
}

// Covers resolves only the cover-song category.
func (a *Aggregator) Covers(ctx context.Context) ([]holodex.Video, error) {
	return a.videoCategory(ctx, cache.KeyCoverSongs, a.fetchCovers)
}

// videoCategory resolves one video category through the cache: a fresh
// cached list is returned as-is; otherwise the fetcher runs, every video
// gets its canonical timestamp attached, and the result is cached.
func (a *Aggregator) videoCategory(ctx context.Context, key string, fetch func(context.Context) ([]holodex.Video, error)) ([]holodex.Video, error) {
	var cached []holodex.Video
	if a.cache.GetInto(key, &cached) {
		return cached, nil
	}

	videos, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		t := holodex.LatestTime(videos[i])
		videos[i].PublishedAt = &t
	}
	a.cache.Set(key, videos)
	return videos, nil
}

// fetchTweets resolves the social category. The unavailable sentinel is
// cached like any payload so a dead mirror set is not re-probed on every
// pass.
func (a *Aggregator) fetchTweets(ctx context.Context) nitter.Result {
	var cached nitter.Result
	if a.cache.GetInto(cache.KeyTweets, &cached) {
		return cached
	}
	result := a.social.Fetch(ctx)
	a.cache.Set(cache.KeyTweets, result)
	return result
}

// trimStreams drops live and upcoming entries (the live rail owns those)
// and caps the list for display.
func trimStreams(videos []holodex.Video) []holodex.Video {
	kept := make([]holodex.Video, 0, recentLimit)
	for _, v := range videos {
		if v.Status == holodex.StatusLive || v.Status == holodex.StatusUpcoming {
			continue
		}
		if v.Raw.Status == holodex.StatusLive || v.Raw.Status == holodex.StatusUpcoming {
			continue
		}
		kept = append(kept, v)
		if len(kept) == recentLimit {
			break
		}
	}
	return kept
}

// latestActivity picks the newest of: the newest recent upload, the newest
// collab, and the newest original (non-retweet) post.
func latestActivity(s Status) *time.Time {
	var latest *time.Time
	consider := func(t time.Time) {
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}

	if len(s.Recent) > 0 && s.Recent[0].PublishedAt != nil {
		consider(*s.Recent[0].PublishedAt)
	}
	if len(s.Collabs) > 0 && s.Collabs[0].PublishedAt != nil {
		consider(*s.Collabs[0].PublishedAt)
	}
	for _, tweet := range s.Tweets.Tweets {
		if tweet.IsRetweet {
			continue
		}
		consider(time.Unix(tweet.Timestamp, 0).UTC())
		break
	}
	return latest
}
