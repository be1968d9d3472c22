package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/pkg/yturl"
)

const stubChannelID = "UCabcdefghijklmnopqrstuv"

// channelSourceStub records the refs it was asked to scrape.
type channelSourceStub struct {
	result *model.ChannelLive
	err    error
	refs   []yturl.ChannelRef
}

func (s *channelSourceStub) LiveVideos(_ context.Context, ref yturl.ChannelRef) (*model.ChannelLive, error) {
	s.refs = append(s.refs, ref)
	if s.err != nil {
		return nil, s.err
	}
	// Fresh copy per call: the service mutates the channel identity.
	out := *s.result
	return &out, nil
}

func nameCache() *cache.TTLCache[*model.ChannelInfo] {
	return cache.NewTTL[*model.ChannelInfo](16, 24*time.Hour, nil)
}

func TestChannelLiveVideos_ResolvesAndCaches(t *testing.T) {
	stub := &channelSourceStub{result: &model.ChannelLive{
		Channel: model.ChannelInfo{ChannelID: stubChannelID, ChannelName: "Acme Live"},
		Videos:  []model.LiveVideo{{VideoID: "live0000001", Title: "Radio"}},
	}}
	svc := NewChannelService(stub, nameCache(), 0)

	live, err := svc.LiveVideos(context.Background(), "https://www.youtube.com/@acmelive")
	if err != nil {
		t.Fatalf("LiveVideos: %v", err)
	}
	if live.Channel.URL != "https://www.youtube.com/@acmelive" {
		t.Errorf("URL = %q, want the caller's channel URL", live.Channel.URL)
	}
	if live.Channel.ChannelID != stubChannelID {
		t.Errorf("ChannelID = %q, want %q", live.Channel.ChannelID, stubChannelID)
	}
	if len(live.Videos) != 1 {
		t.Errorf("videos = %d, want 1", len(live.Videos))
	}
	if len(stub.refs) != 1 || stub.refs[0].Kind != yturl.ChannelHandle {
		t.Fatalf("refs = %+v, want one handle scrape", stub.refs)
	}

	// Second call: the cached UC id rewrites the scrape to the canonical
	// channel URL.
	if _, err := svc.LiveVideos(context.Background(), "https://www.youtube.com/@acmelive"); err != nil {
		t.Fatalf("LiveVideos (cached): %v", err)
	}
	if len(stub.refs) != 2 {
		t.Fatalf("refs = %d, want 2 scrapes (videos always fresh)", len(stub.refs))
	}
	if stub.refs[1].Kind != yturl.ChannelID || stub.refs[1].Value != stubChannelID {
		t.Errorf("second ref = %+v, want canonical UC ref from cache", stub.refs[1])
	}
}

func TestChannelLiveVideos_CacheFillsThinIdentity(t *testing.T) {
	stub := &channelSourceStub{result: &model.ChannelLive{
		Channel: model.ChannelInfo{ChannelID: stubChannelID, ChannelName: "Acme Live"},
	}}
	names := nameCache()
	svc := NewChannelService(stub, names, 0)

	if _, err := svc.LiveVideos(context.Background(), "https://www.youtube.com/@acmelive"); err != nil {
		t.Fatalf("LiveVideos: %v", err)
	}

	// A later scrape that comes back without a name still presents the
	// cached identity.
	stub.result = &model.ChannelLive{Channel: model.ChannelInfo{}}
	live, err := svc.LiveVideos(context.Background(), "https://www.youtube.com/@acmelive")
	if err != nil {
		t.Fatalf("LiveVideos: %v", err)
	}
	if live.Channel.ChannelID != stubChannelID || live.Channel.ChannelName != "Acme Live" {
		t.Errorf("identity = %+v, want filled from cache", live.Channel)
	}
}

func TestChannelLiveVideos_BadURL(t *testing.T) {
	svc := NewChannelService(&channelSourceStub{}, nameCache(), 0)
	if _, err := svc.LiveVideos(context.Background(), "https://example.com/@nope"); err == nil {
		t.Error("LiveVideos should reject a non-YouTube URL")
	}
}

func TestChannelLiveVideos_ScrapeErrorPropagates(t *testing.T) {
	stub := &channelSourceStub{err: errors.New("fetch streams page: 429")}
	svc := NewChannelService(stub, nameCache(), 0)

	if _, err := svc.LiveVideos(context.Background(), "https://www.youtube.com/@acmelive"); err == nil {
		t.Error("LiveVideos should propagate scrape errors")
	}
}

func TestChannelLiveVideos_NoLiveStreams(t *testing.T) {
	stub := &channelSourceStub{result: &model.ChannelLive{
		Channel: model.ChannelInfo{ChannelID: stubChannelID},
	}}
	svc := NewChannelService(stub, nameCache(), 0)

	live, err := svc.LiveVideos(context.Background(), "https://www.youtube.com/channel/"+stubChannelID)
	if err != nil {
		t.Fatalf("LiveVideos: %v", err)
	}
	if len(live.Videos) != 0 {
		t.Errorf("videos = %d, want 0 (empty list, not an error)", len(live.Videos))
	}
}
