// Package preview renders an aggregated dashboard pass as an interactive
// terminal list using Bubble Tea.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/nawka12/moonaroh-com/internal/aggregator"
	"github.com/nawka12/moonaroh-com/internal/holodex"
	"github.com/nawka12/moonaroh-com/internal/merch"
	"github.com/nawka12/moonaroh-com/internal/nitter"
)

// Entry is one browsable row in the preview, flattened from any category.
type Entry struct {
	Category string
	Title    string
	Channel  string
	Link     string
	When     time.Time
	Detail   string
}

// Entries flattens a dashboard pass into a single browsable list, in the
// order the dashboard presents its sections.
func Entries(status aggregator.Status) []Entry {
	var entries []Entry
	add := func(category string, videos []holodex.Video) {
		for _, v := range videos {
			entries = append(entries, videoEntry(category, v))
		}
	}

	add("live", status.Live)
	add("recent", status.Recent)
	add("collab", status.Collabs)
	add("clip", status.Clips)
	add("original", status.Originals)
	add("cover", status.Covers)
	for _, tweet := range status.Tweets.Tweets {
		entries = append(entries, tweetEntry(tweet))
	}
	for _, item := range status.Merch {
		entries = append(entries, merchEntry(item))
	}
	return entries
}

func videoEntry(category string, v holodex.Video) Entry {
	when := holodex.LatestTime(v)
	if v.PublishedAt != nil {
		when = *v.PublishedAt
	}
	return Entry{
		Category: category,
		Title:    v.Title,
		Channel:  v.ChannelName,
		Link:     "https://www.youtube.com/watch?v=" + v.VideoID,
		When:     when,
		Detail:   fmt.Sprintf("Status: %s", v.Status),
	}
}

func tweetEntry(t nitter.Tweet) Entry {
	title := strings.TrimSpace(t.Text)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}

	var details []string
	if t.IsRetweet {
		details = append(details, "Retweet of "+t.RetweetedFrom)
	}
	if t.IsReply {
		details = append(details, "Reply to "+t.ReplyTo)
	}
	if t.IsQuote {
		details = append(details, "Quoting "+t.QuotedFrom)
	}
	if t.IsSpace && t.SpaceInfo != nil {
		details = append(details, "Space: "+t.SpaceInfo.URL)
	}
	if t.Stats != nil {
		details = append(details, fmt.Sprintf("%d replies, %d retweets, %d likes",
			t.Stats.Replies, t.Stats.Retweets, t.Stats.Likes))
	}
	for _, m := range t.Media {
		details = append(details, m.Type+": "+m.URL)
	}
	details = append(details, "", wrapText(t.Text, 70))

	return Entry{
		Category: "tweet",
		Title:    title,
		Channel:  t.OriginalAuthor,
		Link:     "https://x.com/i/status/" + t.ID,
		When:     time.Unix(t.Timestamp, 0).UTC(),
		Detail:   strings.Join(details, "\n"),
	}
}

func merchEntry(item merch.Item) Entry {
	detail := "Price: " + item.Price
	if item.ImageURL != "" {
		detail += "\nImage: " + item.ImageURL
	}
	return Entry{
		Category: "merch",
		Title:    item.Title,
		Link:     item.ItemURL,
		Detail:   detail,
	}
}

// FormatCompactListItem formats one entry for the list view.
// Example: " 1. [original] 2024-03-01  DEJAVU"
func FormatCompactListItem(index int, entry Entry) string {
	date := "          "
	if !entry.When.IsZero() && entry.When.Unix() != 0 {
		date = entry.When.Format("2006-01-02")
	}

	title := entry.Title
	const maxTitleLength = 70
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength-3] + "..."
	}

	return fmt.Sprintf("%2d. [%-8s] %s  %s", index+1, entry.Category, date, title)
}

// FormatDetailedItem formats one entry with all of its metadata.
func FormatDetailedItem(entry Entry) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	b.WriteString(fmt.Sprintf("Title: %s\n", entry.Title))
	if entry.Channel != "" {
		b.WriteString(fmt.Sprintf("Channel: %s\n", entry.Channel))
	}
	if entry.Link != "" {
		b.WriteString(fmt.Sprintf("Link: %s\n", entry.Link))
	}
	if !entry.When.IsZero() && entry.When.Unix() != 0 {
		b.WriteString(fmt.Sprintf("Posted: %s\n", formatTimeAgo(entry.When)))
	}
	if entry.Detail != "" {
		b.WriteString("\n")
		b.WriteString(entry.Detail)
		b.WriteString("\n")
	}
	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// wrapText wraps text to the specified width, breaking at word boundaries
// when possible.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = 70
	}

	var result strings.Builder
	var line strings.Builder
	lineLen := 0

	words := strings.Fields(text)
	for i, word := range words {
		wordLen := len(word)

		if lineLen > 0 && lineLen+1+wordLen > width {
			result.WriteString(line.String())
			result.WriteString("\n")
			line.Reset()
			lineLen = 0
		}

		if lineLen > 0 {
			line.WriteString(" ")
			lineLen++
		}

		line.WriteString(word)
		lineLen += wordLen

		if i == len(words)-1 {
			result.WriteString(line.String())
		}
	}

	return result.String()
}

// formatTimeAgo formats a time.Time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		mins := int(duration.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
