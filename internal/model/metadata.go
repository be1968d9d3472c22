package model

// VideoMetadata is the merged metadata for one video. Numeric fields are
// zero (never null) when unavailable; Error is set when both metadata
// endpoints failed for this video.
type VideoMetadata struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title,omitempty"`
	ChannelName string `json:"channelName,omitempty"`
	ViewCount   int64  `json:"viewCount"`
	LikeCount   int64  `json:"likeCount"`
	IsLive      bool   `json:"isLive"`
	Error       string `json:"error,omitempty"`
}

// MetadataResult is the API response for metadata lookups. Metadata preserves
// the input URL order; Errors collects per-URL failure summaries.
type MetadataResult struct {
	Metadata []VideoMetadata `json:"metadata"`
	Errors   []string        `json:"errors"`
}
