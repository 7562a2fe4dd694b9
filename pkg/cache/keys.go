package cache

// Storage keys. These are the persisted layout of the dashboard's state
// and must remain readable across sessions, so the literal values match
// what earlier versions of the dashboard wrote.
const (
	KeyLiveVideos    = "liveVideos"
	KeyRecentVideos  = "recentVideos"
	KeyTweets        = "tweets"
	KeyCollabs       = "collabVideos"
	KeyClips         = "clipVideos"
	KeyOriginalSongs = "originalSongs"
	KeyCoverSongs    = "coverSongs"
	KeyMerch         = "moonaMerch"
	KeyPreferences   = "moonaPreferences"
)

// Keys lists every expiring cache key, in display order.
var Keys = []string{
	KeyLiveVideos,
	KeyRecentVideos,
	KeyTweets,
	KeyClips,
	KeyCollabs,
	KeyOriginalSongs,
	KeyCoverSongs,
	KeyMerch,
}
