package service

import (
	"context"
	"time"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/pkg/yturl"
)

// ChannelSource scrapes a channel's live streams. *youtube.ChannelScraper
// satisfies it.
type ChannelSource interface {
	LiveVideos(ctx context.Context, ref yturl.ChannelRef) (*model.ChannelLive, error)
}

// ChannelService lists a channel's currently-live streams. Resolved channel
// identity (handle or legacy name to UC id) is cached so repeat lookups skip
// the resolution round trip; the live video list itself is always scraped
// fresh.
type ChannelService struct {
	scraper ChannelSource
	names   *cache.TTLCache[*model.ChannelInfo]
	timeout time.Duration
}

func NewChannelService(scraper ChannelSource, names *cache.TTLCache[*model.ChannelInfo], timeout time.Duration) *ChannelService {
	return &ChannelService{scraper: scraper, names: names, timeout: timeout}
}

// LiveVideos parses the channel URL, scrapes the streams tab and returns the
// channel identity plus every live entry. No live streams is an empty list,
// not an error.
func (s *ChannelService) LiveVideos(ctx context.Context, rawURL string) (*model.ChannelLive, error) {
	ref, err := yturl.ParseChannel(rawURL)
	if err != nil {
		return nil, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	key := ref.ChannelURL()
	cached, hit := s.names.Get(key)

	// A known UC id lets the scraper hit the canonical channel URL and
	// skip handle resolution entirely.
	scrapeRef := ref
	if hit && cached.ChannelID != "" {
		scrapeRef = yturl.ChannelRef{Kind: yturl.ChannelID, Value: cached.ChannelID}
	}

	live, err := s.scraper.LiveVideos(ctx, scrapeRef)
	if err != nil {
		return nil, err
	}

	// Present the channel under the URL the caller asked for.
	live.Channel.URL = key
	if hit {
		if live.Channel.ChannelID == "" {
			live.Channel.ChannelID = cached.ChannelID
		}
		if live.Channel.ChannelName == "" {
			live.Channel.ChannelName = cached.ChannelName
		}
	} else if live.Channel.ChannelID != "" {
		info := live.Channel
		s.names.Set(key, &info)
	}
	return live, nil
}
