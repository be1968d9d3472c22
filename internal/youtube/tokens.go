package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/pkg/yturl"
)

var (
	// ErrNoLiveChat means the watch page has no live chat continuation:
	// the video is not live, or chat is disabled.
	ErrNoLiveChat = errors.New("no live chat continuation on page")
	// ErrNoAPIKey means the page yielded no InnerTube API key at all,
	// usually a consent wall or a blocked fetch.
	ErrNoAPIKey = errors.New("no innertube api key on page")
)

// ExtractionError wraps a token extraction failure with its page context.
type ExtractionError struct {
	URL     string
	Variant string // "static" or "browser"
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract tokens (%s) from %s: %v", e.Variant, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Ordered extraction strategies: first existing path wins.
var (
	apiKeyPaths = []string{
		"INNERTUBE_API_KEY",
	}
	clientVersionPaths = []string{
		"INNERTUBE_CONTEXT_CLIENT_VERSION",
		"INNERTUBE_CONTEXT.client.clientVersion",
	}
	visitorDataPaths = []string{
		"VISITOR_DATA",
		"INNERTUBE_CONTEXT.client.visitorData",
	}
	continuationPaths = []string{
		"contents.twoColumnWatchNextResults.conversationBar.liveChatRenderer.continuations.0.reloadContinuationData.continuation",
		"contents.twoColumnWatchNextResults.conversationBar.liveChatRenderer.header.liveChatHeaderRenderer.viewSelector.sortFilterSubMenuRenderer.subMenuItems.1.continuation.reloadContinuationData.continuation",
		"contents.twoColumnWatchNextResults.conversationBar.liveChatRenderer.header.liveChatHeaderRenderer.viewSelector.sortFilterSubMenuRenderer.subMenuItems.0.continuation.reloadContinuationData.continuation",
	}
	channelNamePaths = []string{
		"contents.twoColumnWatchNextResults.results.results.contents.1.videoSecondaryInfoRenderer.owner.videoOwnerRenderer.title.runs.0.text",
	}
)

// firstPath probes payload with each gjson path in order and returns the
// first non-empty string value.
func firstPath(payload string, paths []string) string {
	if payload == "" {
		return ""
	}
	for _, p := range paths {
		if v := gjson.Get(payload, p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// pageFetcher fetches a raw page. *Client satisfies it; tests inject stubs.
type pageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// browserExtractor is the headless fallback: it returns the raw ytcfg and
// ytInitialData JSON evaluated in page context. *BrowserManager satisfies it.
type browserExtractor interface {
	FetchPageData(ctx context.Context, videoURL string) (cfgJSON, initialDataJSON string, err error)
}

// TokenExtractor harvests InnerTube session tokens from watch pages, static
// fetch first and headless browser as fallback, with a per-URL TTL cache.
type TokenExtractor struct {
	fetcher  pageFetcher
	browser  browserExtractor // nil disables the fallback
	cache    *cache.TTLCache[*model.SessionTokens]
	counters *Counters
	now      func() time.Time
}

// NewTokenExtractor wires the extractor. browser may be nil; a nil clock
// defaults to time.Now.
func NewTokenExtractor(f pageFetcher, browser browserExtractor, c *cache.TTLCache[*model.SessionTokens], counters *Counters, now func() time.Time) *TokenExtractor {
	if now == nil {
		now = time.Now
	}
	if counters == nil {
		counters = &Counters{}
	}
	return &TokenExtractor{fetcher: f, browser: browser, cache: c, counters: counters, now: now}
}

// Extract returns usable session tokens for the given video URL, from cache
// when fresh. The static variant runs first; when it cannot produce a
// continuation and a browser is available, the browser variant retries.
func (e *TokenExtractor) Extract(ctx context.Context, rawURL string) (*model.SessionTokens, error) {
	if tok, ok := e.cache.Get(rawURL); ok {
		return tok, nil
	}

	ref, err := yturl.ParseVideo(rawURL)
	if err != nil {
		return nil, err
	}
	watchURL := yturl.WatchURL(ref.VideoID)

	tok, staticErr := e.extractStatic(ctx, watchURL, ref.VideoID)
	if staticErr != nil && e.browser != nil {
		tok, err = e.extractBrowser(ctx, watchURL, ref.VideoID)
		if err != nil {
			// The static error names the root cause; the browser error
			// is secondary.
			return nil, fmt.Errorf("%w (browser fallback: %v)", staticErr, err)
		}
	} else if staticErr != nil {
		return nil, staticErr
	}

	e.cache.Set(rawURL, tok)
	return tok, nil
}

// Invalidate drops the cached tokens for a URL, forcing re-extraction on the
// next call. Used when a poll reports the continuation stale.
func (e *TokenExtractor) Invalidate(rawURL string) {
	e.cache.Delete(rawURL)
}

// Advance stores the refreshed continuation a poll returned, keeping the rest
// of the session. The cached value is replaced, not mutated: concurrent
// readers may still hold the old pointer.
func (e *TokenExtractor) Advance(rawURL, continuation string) {
	if continuation == "" {
		return
	}
	tok, ok := e.cache.Get(rawURL)
	if !ok || tok.Continuation == continuation {
		return
	}
	next := *tok
	next.Continuation = continuation
	e.cache.Set(rawURL, &next)
}

func (e *TokenExtractor) extractStatic(ctx context.Context, watchURL, videoID string) (*model.SessionTokens, error) {
	e.counters.PageFetches.Add(1)
	html, err := e.fetcher.FetchPage(ctx, watchURL)
	if err != nil {
		e.counters.ExtractionsFailed.Add(1)
		return nil, &ExtractionError{URL: watchURL, Variant: "static", Err: err}
	}

	tok, err := buildTokens(pageData{
		cfgJSON:     findYtcfg(html),
		initialData: findInitialData(html),
		playerResp:  findPlayerResponse(html),
		html:        html,
	}, videoID, e.now())
	if err != nil {
		e.counters.ExtractionsFailed.Add(1)
		return nil, &ExtractionError{URL: watchURL, Variant: "static", Err: err}
	}

	e.counters.ExtractionsStatic.Add(1)
	return tok, nil
}

func (e *TokenExtractor) extractBrowser(ctx context.Context, watchURL, videoID string) (*model.SessionTokens, error) {
	cfgJSON, initialData, err := e.browser.FetchPageData(ctx, watchURL)
	if err != nil {
		e.counters.ExtractionsFailed.Add(1)
		return nil, &ExtractionError{URL: watchURL, Variant: "browser", Err: err}
	}

	tok, err := buildTokens(pageData{
		cfgJSON:     cfgJSON,
		initialData: initialData,
	}, videoID, e.now())
	if err != nil {
		e.counters.ExtractionsFailed.Add(1)
		return nil, &ExtractionError{URL: watchURL, Variant: "browser", Err: err}
	}

	e.counters.ExtractionsBrowser.Add(1)
	return tok, nil
}

// pageData carries the raw payloads one extraction variant produced. The
// static variant fills all fields; the browser variant has no raw HTML.
type pageData struct {
	cfgJSON     string
	initialData string
	playerResp  string
	html        string
}

// buildTokens assembles SessionTokens from whatever payloads are present,
// preferring structured blobs and falling back to raw HTML scans.
func buildTokens(d pageData, videoID string, now time.Time) (*model.SessionTokens, error) {
	apiKey := firstPath(d.cfgJSON, apiKeyPaths)
	if apiKey == "" {
		apiKey = firstMatch(d.html, apiKeyRe)
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	clientVersion := firstPath(d.cfgJSON, clientVersionPaths)
	if clientVersion == "" {
		clientVersion = firstMatch(d.html, clientVersionRe, clientVersionAltRe)
	}
	visitorData := firstPath(d.cfgJSON, visitorDataPaths)
	if visitorData == "" {
		visitorData = firstMatch(d.html, visitorDataRe, visitorDataAltRe)
	}

	continuation := firstPath(d.initialData, continuationPaths)
	if continuation == "" {
		continuation = firstMatch(d.html, continuationRe)
	}
	if continuation == "" {
		return nil, ErrNoLiveChat
	}

	title := pageTitle(d)
	channel := firstPath(d.playerResp, []string{"videoDetails.author"})
	if channel == "" {
		channel = firstPath(d.initialData, channelNamePaths)
	}
	if channel == "" {
		channel = firstMatch(d.html, authorRe)
	}

	return &model.SessionTokens{
		APIKey:        apiKey,
		ClientVersion: clientVersion,
		VisitorData:   visitorData,
		Continuation:  continuation,
		VideoID:       videoID,
		Title:         title,
		ChannelName:   channel,
		FetchedAt:     now,
	}, nil
}

func pageTitle(d pageData) string {
	if d.html != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.html)); err == nil {
			if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
				return og
			}
			if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
				return strings.TrimSuffix(t, " - YouTube")
			}
		}
	}
	if t := firstPath(d.playerResp, []string{"videoDetails.title"}); t != "" {
		return t
	}
	return firstPath(d.initialData, []string{
		"contents.twoColumnWatchNextResults.results.results.contents.0.videoPrimaryInfoRenderer.title.runs.0.text",
	})
}
