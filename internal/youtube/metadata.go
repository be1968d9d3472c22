package youtube

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
)

// Ordered field strategies for the updated_metadata endpoint, evaluated
// against each element of the actions array.
var (
	updatedViewCountPaths = []string{
		"updateViewershipAction.viewCount.videoViewCountRenderer.viewCount.runs.0.text",
		"updateViewershipAction.viewCount.videoViewCountRenderer.viewCount.simpleText",
	}
	updatedTitlePaths = []string{
		"updateTitleAction.title.runs.0.text",
		"updateTitleAction.title.simpleText",
	}
	updatedIsLivePaths = []string{
		"updateViewershipAction.viewCount.videoViewCountRenderer.isLive",
	}
)

// Ordered field strategies for the next endpoint. The like button has gone
// through several renderer shapes; all known ones are probed.
var (
	nextPrimary = "contents.twoColumnWatchNextResults.results.results.contents.0.videoPrimaryInfoRenderer"

	nextViewCountPaths = []string{
		nextPrimary + ".viewCount.videoViewCountRenderer.viewCount.runs.0.text",
		nextPrimary + ".viewCount.videoViewCountRenderer.viewCount.simpleText",
		nextPrimary + ".viewCount.videoViewCountRenderer.shortViewCount.simpleText",
	}
	nextTitlePaths = []string{
		nextPrimary + ".title.runs.0.text",
		nextPrimary + ".title.simpleText",
	}
	nextIsLivePaths = []string{
		nextPrimary + ".viewCount.videoViewCountRenderer.isLive",
	}
	nextLikeCountPaths = []string{
		nextPrimary + ".videoActions.menuRenderer.topLevelButtons.0.segmentedLikeDislikeButtonRenderer.likeButton.toggleButtonRenderer.defaultText.accessibility.accessibilityData.label",
		nextPrimary + ".videoActions.menuRenderer.topLevelButtons.0.segmentedLikeDislikeButtonRenderer.likeButton.toggleButtonRenderer.defaultText.simpleText",
		nextPrimary + ".videoActions.menuRenderer.topLevelButtons.0.segmentedLikeDislikeButtonViewModel.likeButtonViewModel.likeButtonViewModel.toggleButtonViewModel.toggleButtonViewModel.defaultButtonViewModel.buttonViewModel.accessibilityText",
		nextPrimary + ".videoActions.menuRenderer.topLevelButtons.0.segmentedLikeDislikeButtonViewModel.likeButtonViewModel.likeButtonViewModel.toggleButtonViewModel.toggleButtonViewModel.defaultButtonViewModel.buttonViewModel.title",
		nextPrimary + ".videoActions.menuRenderer.topLevelButtons.0.toggleButtonRenderer.defaultText.accessibility.accessibilityData.label",
		nextPrimary + ".videoActions.menuRenderer.topLevelButtons.0.toggleButtonRenderer.defaultText.simpleText",
	}
	nextChannelPaths = []string{
		"contents.twoColumnWatchNextResults.results.results.contents.1.videoSecondaryInfoRenderer.owner.videoOwnerRenderer.title.runs.0.text",
		"contents.twoColumnWatchNextResults.results.results.contents.2.videoSecondaryInfoRenderer.owner.videoOwnerRenderer.title.runs.0.text",
	}
)

var numericRe = regexp.MustCompile(`[\d.]+`)

// ParseCount parses YouTube count text: "1,234", "19K", "1.2M views",
// "523 watching now". A K/M/B multiplier applies only when it immediately
// follows the number. Unparseable input yields 0.
func ParseCount(text string) int64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	loc := numericRe.FindStringIndex(cleaned)
	if loc == nil {
		return 0
	}
	num, err := strconv.ParseFloat(cleaned[loc[0]:loc[1]], 64)
	if err != nil {
		return 0
	}

	mult := 1.0
	if loc[1] < len(cleaned) {
		switch cleaned[loc[1]] {
		case 'K', 'k':
			mult = 1e3
		case 'M', 'm':
			mult = 1e6
		case 'B', 'b':
			mult = 1e9
		}
	}
	return int64(num*mult + 0.5)
}

// firstBool probes payload with each path in order and returns the first
// existing boolean value.
func firstBool(payload string, paths []string) bool {
	for _, p := range paths {
		if v := gjson.Get(payload, p); v.Exists() {
			return v.Bool()
		}
	}
	return false
}

// MetadataFetcher resolves per-video metadata: the updated_metadata endpoint
// is primary (live viewership, title updates), the next endpoint is backup
// (view count, title, likes, channel name for anything not live).
type MetadataFetcher struct {
	client innerTubePoster
}

func NewMetadataFetcher(client innerTubePoster) *MetadataFetcher {
	return &MetadataFetcher{client: client}
}

// Fetch returns merged metadata for one video. Failures never surface as Go
// errors: when both endpoints fail, the result carries Error with zeroed
// numeric fields.
func (f *MetadataFetcher) Fetch(ctx context.Context, videoID string) model.VideoMetadata {
	meta := model.VideoMetadata{VideoID: videoID}
	visitorData := generateVisitorData()

	primaryErr := f.applyUpdated(ctx, &meta, videoID, visitorData)
	backupErr := f.applyNext(ctx, &meta, videoID, visitorData)

	if primaryErr != nil && backupErr != nil {
		return model.VideoMetadata{
			VideoID: videoID,
			Error:   "updated_metadata: " + primaryErr.Error() + "; next: " + backupErr.Error(),
		}
	}
	return meta
}

// applyUpdated fills live viewership and title from the primary endpoint.
// The endpoint returns an empty action list for videos that are not live.
func (f *MetadataFetcher) applyUpdated(ctx context.Context, meta *model.VideoMetadata, videoID, visitorData string) error {
	payload := map[string]any{
		"context": webContext("", visitorData),
		"videoId": videoID,
	}
	body, err := f.client.PostInnerTube(ctx, updatedMetadataPath, "", "", visitorData, payload)
	if err != nil {
		return err
	}

	doc := string(body)
	gjson.Get(doc, "actions").ForEach(func(_, action gjson.Result) bool {
		raw := action.Raw
		if text := firstPath(raw, updatedViewCountPaths); text != "" {
			meta.ViewCount = ParseCount(text)
			if strings.Contains(strings.ToLower(text), "watching") {
				meta.IsLive = true
			}
		}
		if firstBool(raw, updatedIsLivePaths) {
			meta.IsLive = true
		}
		if title := firstPath(raw, updatedTitlePaths); title != "" && meta.Title == "" {
			meta.Title = title
		}
		return true
	})
	return nil
}

// applyNext fills whatever the primary endpoint left empty.
func (f *MetadataFetcher) applyNext(ctx context.Context, meta *model.VideoMetadata, videoID, visitorData string) error {
	payload := map[string]any{
		"context": webContext("", visitorData),
		"videoId": videoID,
	}
	body, err := f.client.PostInnerTube(ctx, nextPath, "", "", visitorData, payload)
	if err != nil {
		return err
	}

	doc := string(body)
	if meta.ViewCount == 0 {
		if text := firstPath(doc, nextViewCountPaths); text != "" {
			meta.ViewCount = ParseCount(text)
			if strings.Contains(strings.ToLower(text), "watching") {
				meta.IsLive = true
			}
		}
	}
	if meta.Title == "" {
		meta.Title = firstPath(doc, nextTitlePaths)
	}
	if meta.ChannelName == "" {
		meta.ChannelName = firstPath(doc, nextChannelPaths)
	}
	if meta.LikeCount == 0 {
		if text := firstPath(doc, nextLikeCountPaths); text != "" {
			meta.LikeCount = ParseCount(text)
		}
	}
	if firstBool(doc, nextIsLivePaths) {
		meta.IsLive = true
	}
	return nil
}
