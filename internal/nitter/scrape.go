package nitter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// parseTimelineDate parses the full-format timestamp Nitter puts in the
// date link's title attribute, e.g. "Sep 27, 2023 · 1:30 PM UTC".
func parseTimelineDate(dateStr string) (time.Time, error) {
	clean := strings.ReplaceAll(dateStr, " · ", " ")
	for _, layout := range []string{
		"Jan 2, 2006 3:04 PM MST",
		"Jan 2, 2006 15:04 MST",
	} {
		if t, err := time.Parse(layout, clean); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", dateStr)
}

// scrapeTimeline walks instances and transports until one tier yields at
// least one tweet from the joint main + with_replies pair. Returns
// ErrUnavailable when everything is exhausted.
func (s *Scraper) scrapeTimeline(ctx context.Context) (*Result, error) {
	for _, instance := range s.instances {
		for _, transport := range s.transports() {
			bodies, err := s.tiered.DoPair(ctx, transport,
				fmt.Sprintf("%s/%s", instance, s.username),
				fmt.Sprintf("%s/%s/with_replies", instance, s.username),
			)
			if err != nil {
				slog.Debug("Timeline tier failed",
					"instance", instance, "transport", transport.Name, "error", err)
				continue
			}

			mainTweets := parseTimelineHTML(bodies[0], instance)
			replyTweets := parseTimelineHTML(bodies[1], instance)

			unique := dedupeByID(append(mainTweets, replyTweets...))
			// An empty-but-well-formed page counts as a failed tier.
			if len(unique) == 0 {
				slog.Debug("Timeline tier returned no tweets",
					"instance", instance, "transport", transport.Name)
				continue
			}

			sortByTimestamp(unique)
			return &Result{Tweets: unique, Source: instance}, nil
		}
	}
	return nil, ErrUnavailable
}

// parseTimelineHTML extracts tweets from a Nitter timeline page. Per-item
// failures (missing expected child elements) skip that item only.
func parseTimelineHTML(body []byte, instance string) []Tweet {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		slog.Warn("Failed to parse timeline HTML", "error", err)
		return nil
	}

	var tweets []Tweet
	doc.Find(".timeline .timeline-item").Each(func(_ int, item *goquery.Selection) {
		if item.Find(".pinned").Length() > 0 {
			return
		}

		tweet, ok := parseTimelineItem(item, instance)
		if !ok {
			return
		}
		tweets = append(tweets, tweet)
	})
	return tweets
}

func parseTimelineItem(item *goquery.Selection, instance string) (Tweet, bool) {
	content := item.Find(".tweet-content").First()
	if content.Length() == 0 {
		return Tweet{}, false
	}

	href, _ := item.Find("a.tweet-link").First().Attr("href")
	id := statusID(href)
	if id == "" {
		return Tweet{}, false
	}

	dateText, _ := item.Find(".tweet-date a").First().Attr("title")
	if dateText == "" {
		return Tweet{}, false
	}
	date, err := parseTimelineDate(dateText)
	if err != nil {
		slog.Debug("Skipping tweet with unparsable date", "date", dateText)
		return Tweet{}, false
	}

	tweet := Tweet{
		ID:        id,
		Text:      strings.TrimSpace(content.Text()),
		Timestamp: date.Unix(),
		Stats: &Stats{
			Replies:  statValue(item, ".icon-comment"),
			Retweets: statValue(item, ".icon-retweet"),
			Likes:    statValue(item, ".icon-heart"),
		},
	}

	if reply := item.Find(".replying-to").First(); reply.Length() > 0 {
		tweet.IsReply = true
		tweet.ReplyTo = strings.TrimSpace(reply.Find("a").First().Text())
	}

	if item.Find(".retweet-header").Length() > 0 {
		tweet.IsRetweet = true
		tweet.RetweetedFrom = strings.TrimSpace(item.Find(".username").First().Text())
	}

	if quote := item.Find(".quote").First(); quote.Length() > 0 {
		tweet.IsQuote = true
		tweet.QuotedFrom = strings.TrimSpace(quote.Find(".username").First().Text())
		if link, ok := quote.Find("a.quote-link").First().Attr("href"); ok {
			tweet.QuotedTweetID = statusID(link)
		}
	}

	item.Find(".attachments .attachment.image img, .gallery-row img").Each(func(_ int, img *goquery.Selection) {
		if url := absoluteMediaURL(img.AttrOr("src", ""), instance); url != "" {
			tweet.Media = append(tweet.Media, Media{Type: "image", URL: url})
		}
	})
	item.Find(".attachments .gallery-video video source, .gallery-video video source").Each(func(_ int, source *goquery.Selection) {
		if url := absoluteMediaURL(source.AttrOr("src", ""), instance); url != "" {
			tweet.Media = append(tweet.Media, Media{Type: "video", URL: url})
		}
	})

	return tweet, true
}

// statusID extracts the post id from a /user/status/<id>#m style link.
func statusID(href string) string {
	_, after, found := strings.Cut(href, "/status/")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(after, "#")
	id, _, _ = strings.Cut(id, "?")
	return id
}

// statValue reads the counter next to a stat icon, tolerating thousands
// separators and missing elements.
func statValue(item *goquery.Selection, iconClass string) int {
	text := item.Find(iconClass).Closest(".tweet-stat").First().Text()
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	value, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return value
}

// absoluteMediaURL resolves instance-relative media paths.
func absoluteMediaURL(url, instance string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "/") {
		return instance + url
	}
	return url
}
