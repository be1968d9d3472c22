package youtube

import (
	"testing"
	"time"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
)

var testSource = model.SourceVideo{
	VideoID: "dQw4w9WgXcQ",
	Title:   "Launch Day Stream",
	URL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
}

func TestNormalize_TextMessageWithEmoji(t *testing.T) {
	item := ChatItem{TextMessage: &TextMessageRenderer{
		ID:                      "msg-1",
		TimestampUsec:           "1724500000000000",
		AuthorName:              FormattedText{SimpleText: "viewer42"},
		AuthorPhoto:             ThumbnailSet{Thumbnails: []Thumbnail{{URL: "small.jpg"}, {URL: "big.jpg"}}},
		AuthorExternalChannelID: "UCviewer",
		Message: FormattedText{Runs: []MessageRun{
			{Text: "nice stream "},
			{Emoji: &EmojiRun{
				EmojiID:       "UC/fire",
				Shortcuts:     []string{":fire:", ":flame:"},
				IsCustomEmoji: true,
				Image:         ThumbnailSet{Thumbnails: []Thumbnail{{URL: "fire.png"}}},
			}},
		}},
	}}

	msg, ok := NewNormalizer(nil).Item(item, testSource)
	if !ok {
		t.Fatal("text message should normalize")
	}
	if msg.Message != "nice stream :fire:" {
		t.Errorf("Message = %q, want %q", msg.Message, "nice stream :fire:")
	}
	if len(msg.Emojis) != 1 {
		t.Fatalf("emojis = %d, want 1", len(msg.Emojis))
	}
	e := msg.Emojis[0]
	if e.Shortcut != ":fire:" || e.ImageURL != "fire.png" || !e.IsCustom {
		t.Errorf("emoji = %+v, want shortcut :fire:, image fire.png, custom", e)
	}
	if msg.Author != "viewer42" || msg.AuthorChannelID != "UCviewer" {
		t.Errorf("author = %q/%q, want viewer42/UCviewer", msg.Author, msg.AuthorChannelID)
	}
	if msg.AuthorPhoto != "big.jpg" {
		t.Errorf("AuthorPhoto = %q, want big.jpg (largest)", msg.AuthorPhoto)
	}
	want := time.UnixMicro(1724500000000000).UTC()
	if !msg.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, want)
	}
	if msg.MessageType != model.MessageText {
		t.Errorf("MessageType = %q, want %q", msg.MessageType, model.MessageText)
	}
	if msg.SourceVideo != testSource {
		t.Errorf("SourceVideo = %+v, want %+v", msg.SourceVideo, testSource)
	}
}

func TestNormalize_PaidMessageKeepsAmountVerbatim(t *testing.T) {
	item := ChatItem{PaidMessage: &PaidMessageRenderer{
		ID:                 "paid-1",
		TimestampUsec:      "1724500001000000",
		AuthorName:         FormattedText{SimpleText: "fan"},
		Message:            FormattedText{Runs: []MessageRun{{Text: "take my money"}}},
		PurchaseAmountText: FormattedText{SimpleText: "CA$5.00"},
	}}

	msg, ok := NewNormalizer(nil).Item(item, testSource)
	if !ok {
		t.Fatal("paid message should normalize")
	}
	if msg.PaidAmount != "CA$5.00" {
		t.Errorf("PaidAmount = %q, want CA$5.00 (verbatim, no currency parsing)", msg.PaidAmount)
	}
	if msg.MessageType != model.MessagePaid {
		t.Errorf("MessageType = %q, want %q", msg.MessageType, model.MessagePaid)
	}
}

func TestNormalize_PaidMessageWithoutTextSurvives(t *testing.T) {
	// A superchat with no message still carries the amount.
	item := ChatItem{PaidMessage: &PaidMessageRenderer{
		ID:                 "paid-2",
		TimestampUsec:      "1724500001000000",
		AuthorName:         FormattedText{SimpleText: "fan"},
		PurchaseAmountText: FormattedText{SimpleText: "$100.00"},
	}}
	if _, ok := NewNormalizer(nil).Item(item, testSource); !ok {
		t.Error("amount-only superchat should not be dropped")
	}
}

func TestNormalize_StickerUsesAccessibilityLabel(t *testing.T) {
	sticker := ThumbnailSet{
		Thumbnails:    []Thumbnail{{URL: "sticker.png"}},
		Accessibility: &Accessibility{},
	}
	sticker.Accessibility.AccessibilityData.Label = "Cute dog waving"

	item := ChatItem{PaidSticker: &PaidStickerRenderer{
		ID:                 "stick-1",
		TimestampUsec:      "1724500002000000",
		AuthorName:         FormattedText{SimpleText: "fan"},
		PurchaseAmountText: FormattedText{SimpleText: "$2.00"},
		Sticker:            sticker,
	}}

	msg, ok := NewNormalizer(nil).Item(item, testSource)
	if !ok {
		t.Fatal("sticker should normalize")
	}
	if msg.Message != "Cute dog waving" {
		t.Errorf("Message = %q, want sticker label", msg.Message)
	}
	if msg.MessageType != model.MessageSticker {
		t.Errorf("MessageType = %q, want %q", msg.MessageType, model.MessageSticker)
	}
}

func TestNormalize_MembershipFallsBackToHeader(t *testing.T) {
	item := ChatItem{MembershipItem: &MembershipItemRenderer{
		ID:            "member-1",
		TimestampUsec: "1724500003000000",
		AuthorName:    FormattedText{SimpleText: "newmember"},
		HeaderSubtext: FormattedText{SimpleText: "Welcome to Tier 1!"},
	}}

	msg, ok := NewNormalizer(nil).Item(item, testSource)
	if !ok {
		t.Fatal("membership item should normalize")
	}
	if msg.Message != "Welcome to Tier 1!" {
		t.Errorf("Message = %q, want header subtext", msg.Message)
	}
	if msg.MessageType != model.MessageMembership {
		t.Errorf("MessageType = %q, want %q", msg.MessageType, model.MessageMembership)
	}
}

func TestNormalize_UnknownRendererDropped(t *testing.T) {
	counters := &Counters{}
	n := NewNormalizer(counters)

	if _, ok := n.Item(ChatItem{}, testSource); ok {
		t.Error("empty item should be dropped")
	}
	if got := counters.UnknownRenderers.Load(); got != 1 {
		t.Errorf("UnknownRenderers = %d, want 1", got)
	}
}

func TestNormalize_EmptyMessageDropped(t *testing.T) {
	item := ChatItem{TextMessage: &TextMessageRenderer{
		ID:            "empty-1",
		TimestampUsec: "1724500000000000",
		AuthorName:    FormattedText{SimpleText: "lurker"},
	}}
	if _, ok := NewNormalizer(nil).Item(item, testSource); ok {
		t.Error("message with no text, emojis or amount should be dropped")
	}
}

func TestNormalize_MissingIDGetsGenerated(t *testing.T) {
	item := ChatItem{TextMessage: &TextMessageRenderer{
		TimestampUsec: "1724500000000000",
		AuthorName:    FormattedText{SimpleText: "viewer"},
		Message:       FormattedText{SimpleText: "hi"},
	}}
	msg, ok := NewNormalizer(nil).Item(item, testSource)
	if !ok {
		t.Fatal("message should normalize")
	}
	if msg.ID == "" {
		t.Error("missing renderer ID should be replaced with a generated one")
	}
}

func TestNormalize_BatchDropsBadItems(t *testing.T) {
	items := []ChatItem{
		{TextMessage: &TextMessageRenderer{ID: "a", Message: FormattedText{SimpleText: "one"}}},
		{}, // unknown renderer
		{TextMessage: &TextMessageRenderer{ID: "b", Message: FormattedText{SimpleText: "two"}}},
	}
	msgs := NewNormalizer(nil).Batch(items, testSource)
	if len(msgs) != 2 {
		t.Fatalf("batch = %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "a" || msgs[1].ID != "b" {
		t.Errorf("batch order = %q,%q, want a,b", msgs[0].ID, msgs[1].ID)
	}
}

func TestBadgeUserType(t *testing.T) {
	owner := AuthorBadge{Badge: BadgeRenderer{Icon: &BadgeIcon{IconType: "OWNER"}}}
	mod := AuthorBadge{Badge: BadgeRenderer{Icon: &BadgeIcon{IconType: "MODERATOR"}}}
	member := AuthorBadge{Badge: BadgeRenderer{CustomThumbnail: &ThumbnailSet{}, Tooltip: "Member (6 months)"}}
	verified := AuthorBadge{Badge: BadgeRenderer{Icon: &BadgeIcon{IconType: "VERIFIED"}}}

	tests := []struct {
		name   string
		badges []AuthorBadge
		want   string
	}{
		{"no badges", nil, model.UserRegular},
		{"owner", []AuthorBadge{owner}, model.UserOwner},
		{"moderator", []AuthorBadge{mod}, model.UserModerator},
		{"member", []AuthorBadge{member}, model.UserMember},
		{"verified only", []AuthorBadge{verified}, model.UserRegular},
		{"owner beats moderator", []AuthorBadge{mod, owner}, model.UserOwner},
		{"moderator beats member", []AuthorBadge{member, mod}, model.UserModerator},
		{"member then moderator", []AuthorBadge{mod, member}, model.UserModerator},
		{"tooltip owner", []AuthorBadge{{Badge: BadgeRenderer{Tooltip: "Channel Owner"}}}, model.UserOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := badgeUserType(tt.badges); got != tt.want {
				t.Errorf("badgeUserType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTimestampUsec(t *testing.T) {
	if got := parseTimestampUsec("1724500000000000"); got != time.UnixMicro(1724500000000000).UTC() {
		t.Errorf("parseTimestampUsec = %v, want 2024-08-24T11:06:40Z", got)
	}
	for _, bad := range []string{"", "not-a-number", "-5", "0"} {
		if got := parseTimestampUsec(bad); !got.IsZero() {
			t.Errorf("parseTimestampUsec(%q) = %v, want zero time", bad, got)
		}
	}
}

func TestFormattedText_Text(t *testing.T) {
	ft := FormattedText{Runs: []MessageRun{
		{Text: "hello "},
		{Emoji: &EmojiRun{EmojiID: "id", Shortcuts: []string{":wave:"}}},
	}}
	if got := ft.Text(); got != "hello :wave:" {
		t.Errorf("Text = %q, want %q", got, "hello :wave:")
	}
	if got := (FormattedText{SimpleText: "plain"}).Text(); got != "plain" {
		t.Errorf("Text = %q, want plain", got)
	}
}
