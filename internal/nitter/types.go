package nitter

// Media is one attachment on a tweet.
type Media struct {
	Type string `json:"type"` // image or video
	URL  string `json:"url"`
}

// Stats carries the engagement counters shown on the timeline.
type Stats struct {
	Replies  int `json:"replies"`
	Retweets int `json:"retweets"`
	Likes    int `json:"likes"`
}

// SpaceInfo identifies a Twitter Space announced by a tweet.
type SpaceInfo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Tweet is one social post, merged from the timeline scrape and the RSS
// feed. ID uniquely identifies a post across both feeds.
type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix seconds

	IsReply   bool `json:"isReply"`
	IsRetweet bool `json:"isRetweet"`
	IsQuote   bool `json:"isQuote"`
	IsSpace   bool `json:"isSpace,omitempty"`

	ReplyTo       string `json:"replyTo,omitempty"`
	RetweetedFrom string `json:"retweetedFrom,omitempty"`
	QuotedFrom    string `json:"quotedFrom,omitempty"`
	QuotedTweetID string `json:"quotedTweetId,omitempty"`

	// OriginalAuthor is only populated by the RSS rendering.
	OriginalAuthor string `json:"originalAuthor,omitempty"`

	Stats     *Stats     `json:"stats,omitempty"`
	SpaceInfo *SpaceInfo `json:"spaceInfo,omitempty"`
	Media     []Media    `json:"media,omitempty"`
}

// Result is the social-post aggregation payload. Either Tweets/Source is
// populated, or Error is set with a user-facing message so the renderer
// can distinguish "no posts exist" from "could not fetch posts".
type Result struct {
	Tweets  []Tweet `json:"tweets,omitempty"`
	Source  string  `json:"source,omitempty"`
	Error   bool    `json:"error,omitempty"`
	Message string  `json:"message,omitempty"`
}
