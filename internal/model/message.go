package model

import "time"

// User types, derived from live chat author badges. Owner always wins over
// any other badge; moderator beats member.
const (
	UserOwner     = "owner"
	UserModerator = "moderator"
	UserMember    = "member"
	UserRegular   = "regular"
)

// Message types, one per chat renderer variant.
const (
	MessageText       = "text"
	MessagePaid       = "paid"
	MessageSticker    = "sticker"
	MessageMembership = "membership"
)

// ChatMessage is a normalized live chat message from any stream.
type ChatMessage struct {
	ID              string      `json:"id"`
	Author          string      `json:"author"`
	AuthorChannelID string      `json:"authorChannelId,omitempty"`
	AuthorPhoto     string      `json:"authorPhoto,omitempty"`
	Message         string      `json:"message"`
	Emojis          []Emoji     `json:"emojis,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
	UserType        string      `json:"userType"`
	PaidAmount      string      `json:"paidAmount,omitempty"`
	MessageType     string      `json:"messageType"`
	SourceVideo     SourceVideo `json:"sourceVideo"`
}

// Emoji is one emoji occurrence inside a message, in run order.
type Emoji struct {
	EmojiID  string `json:"emojiId"`
	Shortcut string `json:"shortcut,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	IsCustom bool   `json:"isCustom"`
}

// SourceVideo identifies the stream a message came from, so multi-stream
// merges keep provenance.
type SourceVideo struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
}

// ChatError is a per-URL failure inside an otherwise successful aggregation.
type ChatError struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// ChatSnapshot is the full-page live chat response: the most recent pageSize
// messages across all requested streams.
type ChatSnapshot struct {
	Messages      []ChatMessage `json:"messages"`
	Errors        []ChatError   `json:"errors"`
	TotalMessages int           `json:"totalMessages"`
	Timestamp     time.Time     `json:"timestamp"`
}

// ChatPage is the incremental live chat response: the first pageSize messages
// after the caller's cursor, plus the cursor for the next call.
type ChatPage struct {
	Messages      []ChatMessage `json:"messages"`
	Errors        []ChatError   `json:"errors"`
	HasMore       bool          `json:"hasMore"`
	LastTimestamp string        `json:"lastTimestamp,omitempty"`
}
