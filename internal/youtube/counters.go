package youtube

import (
	"sync/atomic"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
)

// Counters tracks upstream activity. One instance is shared by the
// extractor, poller, normalizer and browser manager; the stats endpoint and
// Prometheus gauges read it.
type Counters struct {
	PageFetches        atomic.Int64
	ExtractionsStatic  atomic.Int64
	ExtractionsBrowser atomic.Int64
	ExtractionsFailed  atomic.Int64
	ChatPolls          atomic.Int64
	ChatPollsFailed    atomic.Int64
	MessagesNormalized atomic.Int64
	TextMessages       atomic.Int64
	PaidMessages       atomic.Int64
	StickerMessages    atomic.Int64
	MembershipMessages atomic.Int64
	UnknownRenderers   atomic.Int64
	BrowserLaunches    atomic.Int64
	BrowserCrashes     atomic.Int64
}

// Snapshot returns the current counter values keyed by stat name.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"pageFetches":        c.PageFetches.Load(),
		"extractionsStatic":  c.ExtractionsStatic.Load(),
		"extractionsBrowser": c.ExtractionsBrowser.Load(),
		"extractionsFailed":  c.ExtractionsFailed.Load(),
		"chatPolls":          c.ChatPolls.Load(),
		"chatPollsFailed":    c.ChatPollsFailed.Load(),
		"messagesNormalized": c.MessagesNormalized.Load(),
		"textMessages":       c.TextMessages.Load(),
		"paidMessages":       c.PaidMessages.Load(),
		"stickerMessages":    c.StickerMessages.Load(),
		"membershipMessages": c.MembershipMessages.Load(),
		"unknownRenderers":   c.UnknownRenderers.Load(),
		"browserLaunches":    c.BrowserLaunches.Load(),
		"browserCrashes":     c.BrowserCrashes.Load(),
	}
}

// byType returns the per-variant message counter for a normalized message
// type string, or nil for unrecognized input.
func (c *Counters) byType(messageType string) *atomic.Int64 {
	switch messageType {
	case model.MessageText:
		return &c.TextMessages
	case model.MessagePaid:
		return &c.PaidMessages
	case model.MessageSticker:
		return &c.StickerMessages
	case model.MessageMembership:
		return &c.MembershipMessages
	}
	return nil
}
