package youtube

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
)

// Normalizer converts raw chat renderers into ChatMessage values. Dispatch
// is by the item's explicit kind, one function per renderer variant.
type Normalizer struct {
	counters *Counters
}

func NewNormalizer(counters *Counters) *Normalizer {
	if counters == nil {
		counters = &Counters{}
	}
	return &Normalizer{counters: counters}
}

// Batch normalizes a poll's items, dropping unknown renderers and messages
// that carry no content.
func (n *Normalizer) Batch(items []ChatItem, src model.SourceVideo) []model.ChatMessage {
	msgs := make([]model.ChatMessage, 0, len(items))
	for _, item := range items {
		if msg, ok := n.Item(item, src); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// Item normalizes a single chat item. The second return is false when the
// item is an unknown renderer or normalizes to an empty message.
func (n *Normalizer) Item(item ChatItem, src model.SourceVideo) (model.ChatMessage, bool) {
	var msg model.ChatMessage
	switch item.kind() {
	case kindText:
		msg = normalizeText(item.TextMessage, src)
	case kindPaid:
		msg = normalizePaid(item.PaidMessage, src)
	case kindSticker:
		msg = normalizeSticker(item.PaidSticker, src)
	case kindMembership:
		msg = normalizeMembership(item.MembershipItem, src)
	default:
		n.counters.UnknownRenderers.Add(1)
		return model.ChatMessage{}, false
	}

	if msg.Message == "" && len(msg.Emojis) == 0 && msg.PaidAmount == "" {
		return model.ChatMessage{}, false
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	n.counters.MessagesNormalized.Add(1)
	if ctr := n.counters.byType(msg.MessageType); ctr != nil {
		ctr.Add(1)
	}
	return msg, true
}

func normalizeText(r *TextMessageRenderer, src model.SourceVideo) model.ChatMessage {
	text, emojis := renderRuns(r.Message)
	return model.ChatMessage{
		ID:              r.ID,
		Author:          r.AuthorName.Text(),
		AuthorChannelID: r.AuthorExternalChannelID,
		AuthorPhoto:     r.AuthorPhoto.Largest(),
		Message:         text,
		Emojis:          emojis,
		Timestamp:       parseTimestampUsec(r.TimestampUsec),
		UserType:        badgeUserType(r.AuthorBadges),
		MessageType:     model.MessageText,
		SourceVideo:     src,
	}
}

func normalizePaid(r *PaidMessageRenderer, src model.SourceVideo) model.ChatMessage {
	text, emojis := renderRuns(r.Message)
	return model.ChatMessage{
		ID:              r.ID,
		Author:          r.AuthorName.Text(),
		AuthorChannelID: r.AuthorExternalChannelID,
		AuthorPhoto:     r.AuthorPhoto.Largest(),
		Message:         text,
		Emojis:          emojis,
		Timestamp:       parseTimestampUsec(r.TimestampUsec),
		UserType:        badgeUserType(r.AuthorBadges),
		PaidAmount:      r.PurchaseAmountText.Text(),
		MessageType:     model.MessagePaid,
		SourceVideo:     src,
	}
}

func normalizeSticker(r *PaidStickerRenderer, src model.SourceVideo) model.ChatMessage {
	// Stickers have no message runs; the sticker's accessibility label
	// stands in for the text.
	text := ""
	if r.Sticker.Accessibility != nil {
		text = r.Sticker.Accessibility.Label()
	}
	return model.ChatMessage{
		ID:              r.ID,
		Author:          r.AuthorName.Text(),
		AuthorChannelID: r.AuthorExternalChannelID,
		AuthorPhoto:     r.AuthorPhoto.Largest(),
		Message:         text,
		Timestamp:       parseTimestampUsec(r.TimestampUsec),
		UserType:        badgeUserType(r.AuthorBadges),
		PaidAmount:      r.PurchaseAmountText.Text(),
		MessageType:     model.MessageSticker,
		SourceVideo:     src,
	}
}

func normalizeMembership(r *MembershipItemRenderer, src model.SourceVideo) model.ChatMessage {
	text, emojis := renderRuns(r.Message)
	if text == "" && len(emojis) == 0 {
		text, emojis = renderRuns(r.HeaderSubtext)
	}
	return model.ChatMessage{
		ID:              r.ID,
		Author:          r.AuthorName.Text(),
		AuthorChannelID: r.AuthorExternalChannelID,
		AuthorPhoto:     r.AuthorPhoto.Largest(),
		Message:         text,
		Emojis:          emojis,
		Timestamp:       parseTimestampUsec(r.TimestampUsec),
		UserType:        badgeUserType(r.AuthorBadges),
		MessageType:     model.MessageMembership,
		SourceVideo:     src,
	}
}

// renderRuns flattens runs to message text plus the emoji list in run order.
// Emoji runs contribute their shortcut to the text.
func renderRuns(t FormattedText) (string, []model.Emoji) {
	if len(t.Runs) == 0 {
		return t.SimpleText, nil
	}
	var b strings.Builder
	var emojis []model.Emoji
	for _, run := range t.Runs {
		if run.Emoji == nil {
			b.WriteString(run.Text)
			continue
		}
		shortcut := run.Emoji.shortcut()
		b.WriteString(shortcut)
		emojis = append(emojis, model.Emoji{
			EmojiID:  run.Emoji.EmojiID,
			Shortcut: shortcut,
			ImageURL: run.Emoji.Image.Largest(),
			IsCustom: run.Emoji.IsCustomEmoji,
		})
	}
	return b.String(), emojis
}

// badgeUserType derives the author role from badge icon types, tooltips and
// accessibility labels. Owner always wins; moderator beats member; member
// badges are custom thumbnails.
func badgeUserType(badges []AuthorBadge) string {
	userType := model.UserRegular
	for _, b := range badges {
		r := b.Badge
		icon := ""
		if r.Icon != nil {
			icon = strings.ToUpper(r.Icon.IconType)
		}
		tooltip := strings.ToLower(r.Tooltip)
		label := ""
		if r.Accessibility != nil {
			label = strings.ToLower(r.Accessibility.Label())
		}

		switch {
		case icon == "OWNER" || strings.Contains(tooltip, "owner") || strings.Contains(label, "owner"):
			return model.UserOwner
		case icon == "MODERATOR" || strings.Contains(tooltip, "moderator") || strings.Contains(label, "moderator"):
			userType = model.UserModerator
		case r.CustomThumbnail != nil || strings.Contains(tooltip, "member") || strings.Contains(label, "member"):
			if userType != model.UserModerator {
				userType = model.UserMember
			}
		}
	}
	return userType
}

// parseTimestampUsec converts a microsecond epoch string to UTC time.
// Malformed or absent input yields the zero time.
func parseTimestampUsec(s string) time.Time {
	usec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || usec <= 0 {
		return time.Time{}
	}
	return time.UnixMicro(usec).UTC()
}
