package model

// ChannelInfo identifies a resolved channel.
type ChannelInfo struct {
	ChannelID   string `json:"channelId,omitempty"`
	ChannelName string `json:"channelName,omitempty"`
	URL         string `json:"url"`
}

// LiveVideo is one currently live stream on a channel.
type LiveVideo struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ViewerCount int64  `json:"viewerCount"`
}

// ChannelLive is the API response for channel live-video lookups.
type ChannelLive struct {
	Channel ChannelInfo `json:"channel"`
	Videos  []LiveVideo `json:"videos"`
}
