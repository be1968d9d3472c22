package model

import "time"

// SessionTokens holds the InnerTube credentials harvested from a watch page.
// Tokens are only usable when Continuation is non-empty; extraction that
// cannot produce a continuation fails instead of returning a partial set.
type SessionTokens struct {
	APIKey        string    `json:"apiKey"`
	ClientVersion string    `json:"clientVersion"`
	VisitorData   string    `json:"visitorData,omitempty"`
	Continuation  string    `json:"continuation"`
	VideoID       string    `json:"videoId"`
	Title         string    `json:"title,omitempty"`
	ChannelName   string    `json:"channelName,omitempty"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// Usable reports whether the tokens can drive a live chat poll.
func (t *SessionTokens) Usable() bool {
	return t != nil && t.APIKey != "" && t.Continuation != ""
}
