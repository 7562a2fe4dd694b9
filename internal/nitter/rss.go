package nitter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// rssLimit caps the RSS contribution after sorting.
const rssLimit = 6

var (
	rssVideoPattern = regexp.MustCompile(`video\.twimg\.com%2Ftweet_video%2F([^.]+\.mp4)`)
	rssImagePattern = regexp.MustCompile(`/media%2F([^.?]+\.[^?]+)`)
)

// fetchRSS walks instances and transports fetching the main and replies
// RSS feeds as a joint pair, returning the first tier that parses.
func (s *Scraper) fetchRSS(ctx context.Context) ([]Tweet, error) {
	parser := gofeed.NewParser()

	for _, instance := range s.instances {
		for _, transport := range s.transports() {
			bodies, err := s.tiered.DoPair(ctx, transport,
				fmt.Sprintf("%s/%s/rss", instance, s.username),
				fmt.Sprintf("%s/%s/with_replies/rss", instance, s.username),
			)
			if err != nil {
				slog.Debug("RSS tier failed",
					"instance", instance, "transport", transport.Name, "error", err)
				continue
			}

			mainFeed, mainErr := parser.Parse(bytes.NewReader(bodies[0]))
			repliesFeed, repliesErr := parser.Parse(bytes.NewReader(bodies[1]))
			if mainErr != nil || repliesErr != nil {
				slog.Debug("RSS tier returned invalid XML",
					"instance", instance, "transport", transport.Name)
				continue
			}

			tweets := s.parseRSSItems(append(mainFeed.Items, repliesFeed.Items...))
			if len(tweets) == 0 {
				continue
			}

			sortByTimestamp(tweets)
			if len(tweets) > rssLimit {
				tweets = tweets[:rssLimit]
			}
			return tweets, nil
		}
	}
	return nil, ErrUnavailable
}

// parseRSSItems converts feed items to tweets, deduplicating by id as it
// goes. Per-item failures skip that item.
func (s *Scraper) parseRSSItems(items []*gofeed.Item) []Tweet {
	seen := make(map[string]bool)
	var tweets []Tweet

	for _, item := range items {
		id := statusID(item.Link)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if item.PublishedParsed == nil {
			continue
		}

		tweet := Tweet{
			ID:             id,
			Timestamp:      item.PublishedParsed.Unix(),
			OriginalAuthor: rssCreator(item, s.username),
			IsRetweet:      strings.HasPrefix(item.Title, "RT by"),
			IsReply:        strings.HasPrefix(item.Title, "R to"),
		}
		if tweet.IsReply {
			if _, after, found := strings.Cut(item.Title, "R to "); found {
				tweet.ReplyTo, _, _ = strings.Cut(after, ":")
				tweet.ReplyTo = strings.TrimSpace(tweet.ReplyTo)
			}
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.Description))
		if err != nil {
			slog.Debug("Skipping RSS item with unparsable description", "id", id)
			continue
		}

		paragraphs := doc.Find("p")
		firstLink := doc.Find("a").First().AttrOr("href", "")

		if spaceID := spaceIDFrom(firstLink, item.Title); spaceID != "" {
			tweet.IsSpace = true
			tweet.SpaceInfo = &SpaceInfo{
				ID:  spaceID,
				URL: "https://twitter.com/i/spaces/" + spaceID,
			}
			tweet.Text = "🎙️ Started a Twitter Space"
		} else {
			tweet.Text = strings.TrimSpace(paragraphs.First().Text())

			// A link in the second paragraph marks a quote tweet.
			if paragraphs.Length() > 1 {
				quoteLink := paragraphs.Eq(1).Find("a").First().AttrOr("href", "")
				if quoteLink != "" && !strings.Contains(quoteLink, "/spaces/") {
					tweet.IsQuote = true
					tweet.QuotedTweetID = statusID(quoteLink)
					tweet.QuotedFrom = quoteAuthor(quoteLink)
				}
			}
		}

		doc.Find("img, video").Each(func(_ int, element *goquery.Selection) {
			if media, ok := rssMedia(element); ok {
				tweet.Media = append(tweet.Media, media)
			}
		})

		tweets = append(tweets, tweet)
	}
	return tweets
}

// rssMedia de-proxies a Nitter media reference back to the platform CDN.
func rssMedia(element *goquery.Selection) (Media, bool) {
	if goquery.NodeName(element) == "video" {
		src := element.Find("source").First().AttrOr("src", "")
		if match := rssVideoPattern.FindStringSubmatch(src); match != nil {
			return Media{Type: "video", URL: "https://video.twimg.com/tweet_video/" + match[1]}, true
		}
		return Media{}, false
	}

	src := element.AttrOr("src", "")
	if match := rssImagePattern.FindStringSubmatch(src); match != nil {
		return Media{Type: "image", URL: "https://pbs.twimg.com/media/" + match[1]}, true
	}
	return Media{}, false
}

func rssCreator(item *gofeed.Item, username string) string {
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return "@" + username
}

func spaceIDFrom(link, title string) string {
	for _, candidate := range []string{link, title} {
		if _, after, found := strings.Cut(candidate, "/spaces/"); found {
			id, _, _ := strings.Cut(after, "/")
			id, _, _ = strings.Cut(id, "#")
			return id
		}
	}
	return ""
}

// quoteAuthor pulls the username segment out of a status link,
// e.g. https://host/someuser/status/123 -> someuser.
func quoteAuthor(link string) string {
	parts := strings.Split(link, "/")
	if len(parts) > 3 {
		return parts[3]
	}
	return ""
}
