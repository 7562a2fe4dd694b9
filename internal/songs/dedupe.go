// Package songs collapses the platform's multiple uploads of one creative
// work (original, remaster, instrumental, MV) into a single canonical
// entry per work, without manual curation.
package songs

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nawka12/moonaroh-com/internal/holodex"
)

// cleaning steps, applied in order to the display title.
var cleaners = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`[\[【][^\]】]*[\]】]`), ""},                                  // bracketed annotations, ASCII and CJK
	{regexp.MustCompile(`(?i)(MV|Official|Music Video|Video|Music|Animated)`), ""}, // release markers
	{regexp.MustCompile(`(?i)\([^)]*(remastered|ver|version)[^)]*\)`), ""},
	{regexp.MustCompile(`(?i)（[^）]*(remastered|ver|version)[^）]*）`), ""},
	{regexp.MustCompile(`\([^)]*\)`), ""},
	{regexp.MustCompile(`（[^）]*）`), ""},
	{regexp.MustCompile(`(?i)feat\.|ft\.`), ""},
	{regexp.MustCompile(`(?i)\s+feat(\.|ur(ing)?)?\s+.*$`), ""},
	{regexp.MustCompile(`(?i)moona\s+hoshinova\s*[-–]\s*`), ""},
	{regexp.MustCompile(`(?i)\s*[-–]\s*moona\s+hoshinova`), ""},
	{regexp.MustCompile(`(?i)moona\s+hoshinova`), ""},
	{regexp.MustCompile(`\s*[-–]\s*`), " "},
	{regexp.MustCompile(`\s*\|\|\s*`), " - "},
	{regexp.MustCompile(`\s+`), " "},
	{regexp.MustCompile(`(?i)instrumental`), ""},
	{regexp.MustCompile(`(?i)remastered(\s+ver(sion)?)?`), ""},
	{regexp.MustCompile(`^['"]`), ""},
	{regexp.MustCompile(`['"]$`), ""},
	{regexp.MustCompile(`\s*\[[^\]]*\]`), ""},
	{regexp.MustCompile(`\s*\([^)]*\)`), ""},
	{regexp.MustCompile(`\s*（[^）]*）`), ""},
	{regexp.MustCompile(`(?i)\s*hololive\s+id`), ""},
}

var (
	nonLatinScript = regexp.MustCompile(`[\x{3000}-\x{303f}\x{3040}-\x{309f}\x{30a0}-\x{30ff}\x{ff00}-\x{ff9f}\x{4e00}-\x{9faf}\x{3400}-\x{4dbf}]`)
	dashSeparator  = regexp.MustCompile(`\s-\s`)
	releaseMarker  = regexp.MustCompile(`(?i)Original Song|Official|MV`)
	remasterMarker = regexp.MustCompile(`remastered|remaster\s+ver`)
)

// Normalize reduces a display title to its grouping key: annotations,
// credits and version qualifiers stripped, whitespace collapsed,
// lowercased. A title mixing non-Latin script with a Latin romanization
// separated by a hyphen keeps only the non-Latin segment.
func Normalize(title string) string {
	clean := title
	for _, c := range cleaners {
		clean = c.re.ReplaceAllString(clean, c.replacement)
	}
	clean = strings.ToLower(strings.TrimSpace(clean))

	if nonLatinScript.MatchString(clean) {
		parts := dashSeparator.Split(clean, -1)
		if len(parts) > 1 {
			for _, part := range parts {
				if nonLatinScript.MatchString(part) {
					return strings.TrimSpace(part)
				}
			}
		}
	}
	return clean
}

// better reports whether a outranks b as the representative of a group:
// release-marker bracket first, then Original Song/Official/MV titles,
// then non-instrumental, then non-remaster, then latest resolved time.
func better(a, b holodex.Video) bool {
	aMV := strings.Contains(a.Title, "】")
	bMV := strings.Contains(b.Title, "】")
	if aMV != bMV {
		return aMV
	}

	aMarked := releaseMarker.MatchString(a.Title)
	bMarked := releaseMarker.MatchString(b.Title)
	if aMarked != bMarked {
		return aMarked
	}

	aInst := strings.Contains(strings.ToLower(a.Title), "instrumental")
	bInst := strings.Contains(strings.ToLower(b.Title), "instrumental")
	if aInst != bInst {
		return bInst
	}

	aRemaster := remasterMarker.MatchString(strings.ToLower(a.Title))
	bRemaster := remasterMarker.MatchString(strings.ToLower(b.Title))
	if aRemaster != bRemaster {
		return bRemaster
	}

	return holodex.LatestTime(a).After(holodex.LatestTime(b))
}

// Dedupe groups videos by normalized title and keeps one representative
// per group, then sorts the result by resolved time, newest first.
func Dedupe(videos []holodex.Video) []holodex.Video {
	groups := make(map[string]holodex.Video)
	order := make([]string, 0, len(videos))

	for _, video := range videos {
		key := Normalize(video.Title)
		current, seen := groups[key]
		if !seen {
			groups[key] = video
			order = append(order, key)
			continue
		}
		// Strict comparison keeps the earlier item on ties, matching
		// ingestion order.
		if better(video, current) {
			groups[key] = video
		}
	}

	deduped := make([]holodex.Video, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, groups[key])
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return holodex.LatestTime(deduped[i]).After(holodex.LatestTime(deduped[j]))
	})
	return deduped
}
