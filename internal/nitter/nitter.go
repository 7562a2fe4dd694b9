// Package nitter scrapes the social-media mirror for a user's posts,
// combining a timeline HTML scrape with the mirror's RSS feeds and
// presenting one deduplicated, recency-ordered view.
package nitter

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/nawka12/moonaroh-com/pkg/fetch"
	httputil "github.com/nawka12/moonaroh-com/pkg/http"
)

// ErrUnavailable signals that every mirror instance and transport failed.
// Distinct from "the user has no posts".
var ErrUnavailable = errors.New("nitter unavailable")

// unavailableMessage is shown to the user when no source yields posts.
const unavailableMessage = "Unable to fetch tweets at the moment, please try again later."

// Scraper fetches a user's posts from a set of mirror instances.
type Scraper struct {
	username  string
	instances []string
	proxies   []string
	tiered    *fetch.Tiered
}

// NewScraper creates a scraper for username across the given mirror
// instances, trying each proxy before a direct request.
func NewScraper(client *httputil.Client, username string, instances, proxies []string) *Scraper {
	return &Scraper{
		username:  username,
		instances: instances,
		proxies:   proxies,
		tiered: &fetch.Tiered{
			Client:  client,
			Timeout: 30 * time.Second,
		},
	}
}

// transports returns the ordered transport tiers: each proxy, then direct.
func (s *Scraper) transports() []fetch.Transport {
	transports := make([]fetch.Transport, 0, len(s.proxies)+1)
	for i, proxy := range s.proxies {
		name := "proxy"
		if i > 0 {
			name = "backup-proxy"
		}
		transports = append(transports, fetch.Proxy(name, proxy))
	}
	return append(transports, fetch.Direct())
}

// Fetch runs the timeline scrape and the RSS fetch concurrently, tolerates
// either failing alone, and merges the survivors. Both failing (or both
// empty) yields the explicit error payload rather than an empty list, so
// the renderer can tell "no posts" from "could not fetch".
func (s *Scraper) Fetch(ctx context.Context) Result {
	type scrapeOutcome struct {
		result *Result
		err    error
	}
	type rssOutcome struct {
		tweets []Tweet
		err    error
	}

	scrapeCh := make(chan scrapeOutcome, 1)
	rssCh := make(chan rssOutcome, 1)

	go func() {
		result, err := s.scrapeTimeline(ctx)
		scrapeCh <- scrapeOutcome{result: result, err: err}
	}()
	go func() {
		tweets, err := s.fetchRSS(ctx)
		rssCh <- rssOutcome{tweets: tweets, err: err}
	}()

	scrape := <-scrapeCh
	rss := <-rssCh

	var scraped []Tweet
	var source string
	if scrape.err != nil {
		slog.Warn("Timeline scrape failed", "error", scrape.err)
	} else {
		scraped = scrape.result.Tweets
		source = scrape.result.Source
	}
	if rss.err != nil {
		slog.Warn("RSS fetch failed", "error", rss.err)
	}

	slog.Debug("Fetched tweets",
		"scraped", len(scraped), "source", source, "rss", len(rss.tweets))

	if len(scraped) == 0 && len(rss.tweets) == 0 {
		return Result{Error: true, Message: unavailableMessage}
	}

	// Scrape results are ingested before RSS, so on an id collision the
	// scrape rendering wins. That first-seen tie-break is documented
	// incidental behavior; retweet attribution differs between feeds and
	// no field merging is attempted.
	merged := dedupeByID(append(scraped, rss.tweets...))
	sortByTimestamp(merged)

	return Result{Tweets: merged, Source: source}
}

// dedupeByID keeps the first occurrence of each post id, preserving
// ingestion order.
func dedupeByID(tweets []Tweet) []Tweet {
	seen := make(map[string]bool, len(tweets))
	unique := make([]Tweet, 0, len(tweets))
	for _, tweet := range tweets {
		if seen[tweet.ID] {
			continue
		}
		seen[tweet.ID] = true
		unique = append(unique, tweet)
	}
	return unique
}

// sortByTimestamp orders tweets newest first.
func sortByTimestamp(tweets []Tweet) {
	sort.SliceStable(tweets, func(i, j int) bool {
		return tweets[i].Timestamp > tweets[j].Timestamp
	})
}
