package youtube

import "strings"

// Raw InnerTube chat envelope. Only the fields the poller and normalizer
// consume are modeled; everything else in the payload is ignored.

type chatResponse struct {
	ContinuationContents *continuationContents `json:"continuationContents"`
}

type continuationContents struct {
	LiveChatContinuation liveChatContinuation `json:"liveChatContinuation"`
}

type liveChatContinuation struct {
	Continuations []continuationVariant `json:"continuations"`
	Actions       []chatAction          `json:"actions"`
}

// continuationVariant carries at most one continuation flavor. Priority when
// picking the next token: invalidation, then timed, then reload.
type continuationVariant struct {
	Invalidation *continuationData `json:"invalidationContinuationData"`
	Timed        *continuationData `json:"timedContinuationData"`
	Reload       *continuationData `json:"reloadContinuationData"`
}

type continuationData struct {
	Continuation string `json:"continuation"`
	TimeoutMs    int    `json:"timeoutMs"`
}

type chatAction struct {
	AddChatItem    *addChatItemAction    `json:"addChatItemAction"`
	ReplayChatItem *replayChatItemAction `json:"replayChatItemAction"`
}

// replayChatItemAction nests regular actions when chat is served as replay.
type replayChatItemAction struct {
	Actions             []chatAction `json:"actions"`
	VideoOffsetTimeMsec string       `json:"videoOffsetTimeMsec"`
}

type addChatItemAction struct {
	Item ChatItem `json:"item"`
}

// ChatItem is the tagged union of chat renderer variants; exactly one pointer
// is non-nil for a well-formed item. Unknown renderers leave all pointers nil.
type ChatItem struct {
	TextMessage    *TextMessageRenderer    `json:"liveChatTextMessageRenderer"`
	PaidMessage    *PaidMessageRenderer    `json:"liveChatPaidMessageRenderer"`
	PaidSticker    *PaidStickerRenderer    `json:"liveChatPaidStickerRenderer"`
	MembershipItem *MembershipItemRenderer `json:"liveChatMembershipItemRenderer"`
}

type itemKind int

const (
	kindUnknown itemKind = iota
	kindText
	kindPaid
	kindSticker
	kindMembership
)

// kind is the explicit discriminant used to dispatch normalization.
func (i ChatItem) kind() itemKind {
	switch {
	case i.TextMessage != nil:
		return kindText
	case i.PaidMessage != nil:
		return kindPaid
	case i.PaidSticker != nil:
		return kindSticker
	case i.MembershipItem != nil:
		return kindMembership
	}
	return kindUnknown
}

// TextMessageRenderer is a regular chat message.
type TextMessageRenderer struct {
	ID                      string        `json:"id"`
	TimestampUsec           string        `json:"timestampUsec"`
	AuthorName              FormattedText `json:"authorName"`
	AuthorPhoto             ThumbnailSet  `json:"authorPhoto"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	Message                 FormattedText `json:"message"`
}

// PaidMessageRenderer is a superchat.
type PaidMessageRenderer struct {
	ID                      string        `json:"id"`
	TimestampUsec           string        `json:"timestampUsec"`
	AuthorName              FormattedText `json:"authorName"`
	AuthorPhoto             ThumbnailSet  `json:"authorPhoto"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	Message                 FormattedText `json:"message"`
	PurchaseAmountText      FormattedText `json:"purchaseAmountText"`
}

// PaidStickerRenderer is a paid sticker; the sticker image stands in for text.
type PaidStickerRenderer struct {
	ID                      string        `json:"id"`
	TimestampUsec           string        `json:"timestampUsec"`
	AuthorName              FormattedText `json:"authorName"`
	AuthorPhoto             ThumbnailSet  `json:"authorPhoto"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	PurchaseAmountText      FormattedText `json:"purchaseAmountText"`
	Sticker                 ThumbnailSet  `json:"sticker"`
}

// MembershipItemRenderer is a membership join or milestone message.
type MembershipItemRenderer struct {
	ID                      string        `json:"id"`
	TimestampUsec           string        `json:"timestampUsec"`
	AuthorName              FormattedText `json:"authorName"`
	AuthorPhoto             ThumbnailSet  `json:"authorPhoto"`
	AuthorExternalChannelID string        `json:"authorExternalChannelId"`
	AuthorBadges            []AuthorBadge `json:"authorBadges"`
	HeaderSubtext           FormattedText `json:"headerSubtext"`
	Message                 FormattedText `json:"message"`
}

// AuthorBadge wraps the badge renderer envelope.
type AuthorBadge struct {
	Badge BadgeRenderer `json:"liveChatAuthorBadgeRenderer"`
}

// BadgeRenderer describes one author badge. Built-in badges (owner,
// moderator, verified) carry an icon type; member badges carry a custom
// thumbnail. Tooltip and accessibility label describe either.
type BadgeRenderer struct {
	CustomThumbnail *ThumbnailSet  `json:"customThumbnail"`
	Icon            *BadgeIcon     `json:"icon"`
	Tooltip         string         `json:"tooltip"`
	Accessibility   *Accessibility `json:"accessibility"`
}

type BadgeIcon struct {
	IconType string `json:"iconType"`
}

// FormattedText is YouTube's text shape: either a simpleText or a run list.
type FormattedText struct {
	SimpleText string       `json:"simpleText"`
	Runs       []MessageRun `json:"runs"`
}

// Text flattens to plain text. Emoji runs contribute their first shortcut,
// falling back to the accessibility label, then the emoji ID.
func (t FormattedText) Text() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, run := range t.Runs {
		if run.Emoji != nil {
			b.WriteString(run.Emoji.shortcut())
			continue
		}
		b.WriteString(run.Text)
	}
	return b.String()
}

// MessageRun is one run of a formatted text: plain text or an emoji.
type MessageRun struct {
	Text  string    `json:"text"`
	Emoji *EmojiRun `json:"emoji"`
}

type EmojiRun struct {
	EmojiID       string       `json:"emojiId"`
	Shortcuts     []string     `json:"shortcuts"`
	SearchTerms   []string     `json:"searchTerms"`
	IsCustomEmoji bool         `json:"isCustomEmoji"`
	Image         ThumbnailSet `json:"image"`
}

func (e *EmojiRun) shortcut() string {
	if len(e.Shortcuts) > 0 {
		return e.Shortcuts[0]
	}
	if e.Image.Accessibility != nil {
		if label := e.Image.Accessibility.Label(); label != "" {
			return label
		}
	}
	return e.EmojiID
}

type ThumbnailSet struct {
	Thumbnails    []Thumbnail    `json:"thumbnails"`
	Accessibility *Accessibility `json:"accessibility,omitempty"`
}

// Largest returns the URL of the last (largest) thumbnail, or "".
func (s ThumbnailSet) Largest() string {
	if len(s.Thumbnails) == 0 {
		return ""
	}
	return s.Thumbnails[len(s.Thumbnails)-1].URL
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
}

type Accessibility struct {
	AccessibilityData struct {
		Label string `json:"label"`
	} `json:"accessibilityData"`
}

// Label returns the accessibility label, or "".
func (a Accessibility) Label() string {
	return a.AccessibilityData.Label
}
