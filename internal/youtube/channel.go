package youtube

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/pkg/yturl"
)

var externalChannelIDRe = regexp.MustCompile(`"channelId":"(UC[0-9A-Za-z_-]{22})"`)

// Channel identity strategies on the browse payload, most reliable first.
var (
	channelNameMetaPaths = []string{
		"metadata.channelMetadataRenderer.title",
		"microformat.microformatDataRenderer.title",
		"header.c4TabbedHeaderRenderer.title",
		"header.pageHeaderRenderer.pageTitle",
	}
	channelExternalIDPaths = []string{
		"metadata.channelMetadataRenderer.externalId",
		"header.c4TabbedHeaderRenderer.channelId",
	}
	liveTitlePaths = []string{
		"title.runs.0.text",
		"title.simpleText",
		"headline.simpleText",
	}
	liveViewerPaths = []string{
		"viewCountText.runs.0.text",
		"viewCountText.simpleText",
		"shortViewCountText.simpleText",
	}
)

// ChannelScraper lists the currently-live streams on a channel from its
// /streams tab.
type ChannelScraper struct {
	fetcher  pageFetcher
	counters *Counters
}

func NewChannelScraper(f pageFetcher, counters *Counters) *ChannelScraper {
	if counters == nil {
		counters = &Counters{}
	}
	return &ChannelScraper{fetcher: f, counters: counters}
}

// LiveVideos fetches the streams tab for ref and returns the channel identity
// plus every entry currently marked live. A channel with no live streams
// returns an empty video list, not an error.
func (s *ChannelScraper) LiveVideos(ctx context.Context, ref yturl.ChannelRef) (*model.ChannelLive, error) {
	s.counters.PageFetches.Add(1)
	html, err := s.fetcher.FetchPage(ctx, ref.StreamsURL())
	if err != nil {
		return nil, fmt.Errorf("fetch streams page: %w", err)
	}

	initialData := findInitialData(html)
	if initialData == "" {
		return nil, fmt.Errorf("streams page for %q: no initial data", ref.Value)
	}

	info := model.ChannelInfo{URL: ref.ChannelURL()}
	info.ChannelName = firstPath(initialData, channelNameMetaPaths)
	if info.ChannelName == "" {
		info.ChannelName = channelNameFromHTML(html)
	}
	info.ChannelID = s.resolveChannelID(ctx, ref, initialData, html)

	return &model.ChannelLive{
		Channel: info,
		Videos:  collectLiveVideos(initialData),
	}, nil
}

// resolveChannelID maps handle and legacy forms to the canonical UC id. The
// streams page usually embeds it; the /about page is the last resort.
func (s *ChannelScraper) resolveChannelID(ctx context.Context, ref yturl.ChannelRef, initialData, html string) string {
	if ref.Kind == yturl.ChannelID {
		return ref.Value
	}
	if id := firstPath(initialData, channelExternalIDPaths); id != "" {
		return id
	}
	if m := externalChannelIDRe.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	s.counters.PageFetches.Add(1)
	about, err := s.fetcher.FetchPage(ctx, ref.ChannelURL()+"/about")
	if err != nil {
		return ""
	}
	if m := externalChannelIDRe.FindStringSubmatch(about); m != nil {
		return m[1]
	}
	return ""
}

func channelNameFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		return og
	}
	return strings.TrimSuffix(strings.TrimSpace(doc.Find("title").First().Text()), " - YouTube")
}

// collectLiveVideos walks the browse payload for video renderers whose
// overlays or badges mark them live. The walk is shape-agnostic: rich grid,
// legacy section list, and shelf layouts all surface the same renderer keys.
func collectLiveVideos(initialData string) []model.LiveVideo {
	videos := make([]model.LiveVideo, 0, 4)
	seen := make(map[string]struct{})

	var walk func(v gjson.Result)
	walk = func(v gjson.Result) {
		if !v.IsObject() && !v.IsArray() {
			return
		}
		v.ForEach(func(key, child gjson.Result) bool {
			switch key.String() {
			case "videoRenderer", "gridVideoRenderer":
				if lv, ok := liveVideoFromRenderer(child); ok {
					if _, dup := seen[lv.VideoID]; !dup {
						seen[lv.VideoID] = struct{}{}
						videos = append(videos, lv)
					}
				}
			default:
				walk(child)
			}
			return true
		})
	}
	walk(gjson.Parse(initialData))
	return videos
}

func liveVideoFromRenderer(r gjson.Result) (model.LiveVideo, bool) {
	id := r.Get("videoId").String()
	if id == "" || !isLiveRenderer(r) {
		return model.LiveVideo{}, false
	}

	lv := model.LiveVideo{
		VideoID:     id,
		Title:       firstPath(r.Raw, liveTitlePaths),
		URL:         yturl.WatchURL(id),
		ViewerCount: ParseCount(firstPath(r.Raw, liveViewerPaths)),
	}
	if thumbs := r.Get("thumbnail.thumbnails").Array(); len(thumbs) > 0 {
		lv.Thumbnail = thumbs[len(thumbs)-1].Get("url").String()
	}
	return lv, true
}

func isLiveRenderer(r gjson.Result) bool {
	live := false
	r.Get("thumbnailOverlays").ForEach(func(_, o gjson.Result) bool {
		if o.Get("thumbnailOverlayTimeStatusRenderer.style").String() == "LIVE" {
			live = true
			return false
		}
		return true
	})
	if live {
		return true
	}
	r.Get("badges").ForEach(func(_, b gjson.Result) bool {
		if b.Get("metadataBadgeRenderer.style").String() == "BADGE_STYLE_TYPE_LIVE_NOW" {
			live = true
			return false
		}
		return true
	})
	return live
}
