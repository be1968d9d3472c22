package youtube

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
)

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// watchPageHTML is a minimal watch page with every structured blob present.
const watchPageHTML = `<!DOCTYPE html><html><head>
<meta property="og:title" content="Launch Day Stream">
<title>Launch Day Stream - YouTube</title>
<script>ytcfg.set({"EVENT_ID":"e1"});ytcfg.set({"INNERTUBE_API_KEY":"page-key-123","INNERTUBE_CONTEXT_CLIENT_VERSION":"2.20240814.01.00","VISITOR_DATA":"CgtWaXNpdG9y"});</script>
<script>var ytInitialData = {"contents":{"twoColumnWatchNextResults":{"conversationBar":{"liveChatRenderer":{"continuations":[{"reloadContinuationData":{"continuation":"cont-reload-1"}}]}}}}};</script>
<script>var ytInitialPlayerResponse = {"videoDetails":{"title":"Launch Day Stream","author":"Acme Live"}};</script>
</head><body></body></html>`

// noChatPageHTML has valid config but no live chat renderer at all.
const noChatPageHTML = `<html><head><title>Old Upload - YouTube</title>
<script>ytcfg.set({"INNERTUBE_API_KEY":"page-key-123"});</script>
<script>var ytInitialData = {"contents":{"twoColumnWatchNextResults":{"results":{}}}};</script>
</head></html>`

type pageFetcherStub struct {
	html  string
	err   error
	calls int
}

func (f *pageFetcherStub) FetchPage(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.html, f.err
}

type browserStub struct {
	cfgJSON     string
	initialData string
	err         error
	calls       int
}

func (b *browserStub) FetchPageData(_ context.Context, _ string) (string, string, error) {
	b.calls++
	return b.cfgJSON, b.initialData, b.err
}

func tokenCache() *cache.TTLCache[*model.SessionTokens] {
	return cache.NewTTL[*model.SessionTokens](16, 15*time.Minute, nil)
}

func TestBuildTokens_FullPage(t *testing.T) {
	tok, err := buildTokens(pageData{
		cfgJSON:     findYtcfg(watchPageHTML),
		initialData: findInitialData(watchPageHTML),
		playerResp:  findPlayerResponse(watchPageHTML),
		html:        watchPageHTML,
	}, "dQw4w9WgXcQ", time.Unix(1724500000, 0))
	if err != nil {
		t.Fatalf("buildTokens: %v", err)
	}
	if tok.APIKey != "page-key-123" {
		t.Errorf("APIKey = %q, want page-key-123", tok.APIKey)
	}
	if tok.ClientVersion != "2.20240814.01.00" {
		t.Errorf("ClientVersion = %q, want 2.20240814.01.00", tok.ClientVersion)
	}
	if tok.VisitorData != "CgtWaXNpdG9y" {
		t.Errorf("VisitorData = %q, want CgtWaXNpdG9y", tok.VisitorData)
	}
	if tok.Continuation != "cont-reload-1" {
		t.Errorf("Continuation = %q, want cont-reload-1", tok.Continuation)
	}
	if tok.Title != "Launch Day Stream" {
		t.Errorf("Title = %q, want Launch Day Stream (og:title)", tok.Title)
	}
	if tok.ChannelName != "Acme Live" {
		t.Errorf("ChannelName = %q, want Acme Live", tok.ChannelName)
	}
	if !tok.Usable() {
		t.Error("tokens should be usable")
	}
}

func TestBuildTokens_RawHTMLFallback(t *testing.T) {
	// No ytcfg.set call and no marked blobs: everything comes from raw
	// HTML regex scans.
	html := `<html><script>window.x = {"INNERTUBE_API_KEY":"raw-key","clientVersion":"2.raw","visitorData":"raw-visitor","continuation":"raw-cont"};</script></html>`
	tok, err := buildTokens(pageData{html: html}, "dQw4w9WgXcQ", time.Now())
	if err != nil {
		t.Fatalf("buildTokens: %v", err)
	}
	if tok.APIKey != "raw-key" {
		t.Errorf("APIKey = %q, want raw-key", tok.APIKey)
	}
	if tok.ClientVersion != "2.raw" {
		t.Errorf("ClientVersion = %q, want 2.raw", tok.ClientVersion)
	}
	if tok.VisitorData != "raw-visitor" {
		t.Errorf("VisitorData = %q, want raw-visitor", tok.VisitorData)
	}
	if tok.Continuation != "raw-cont" {
		t.Errorf("Continuation = %q, want raw-cont", tok.Continuation)
	}
}

func TestBuildTokens_SubMenuContinuationPriority(t *testing.T) {
	// Without a conversation bar reload token, the "Live chat" sub menu
	// entry (index 1) wins over "Top chat" (index 0).
	initialData := `{"contents":{"twoColumnWatchNextResults":{"conversationBar":{"liveChatRenderer":{"header":{"liveChatHeaderRenderer":{"viewSelector":{"sortFilterSubMenuRenderer":{"subMenuItems":[{"continuation":{"reloadContinuationData":{"continuation":"cont-top"}}},{"continuation":{"reloadContinuationData":{"continuation":"cont-live"}}}]}}}}}}}}}`
	tok, err := buildTokens(pageData{
		cfgJSON:     `{"INNERTUBE_API_KEY":"k"}`,
		initialData: initialData,
	}, "dQw4w9WgXcQ", time.Now())
	if err != nil {
		t.Fatalf("buildTokens: %v", err)
	}
	if tok.Continuation != "cont-live" {
		t.Errorf("Continuation = %q, want cont-live", tok.Continuation)
	}
}

func TestBuildTokens_NoLiveChat(t *testing.T) {
	_, err := buildTokens(pageData{
		cfgJSON:     findYtcfg(noChatPageHTML),
		initialData: findInitialData(noChatPageHTML),
		html:        noChatPageHTML,
	}, "dQw4w9WgXcQ", time.Now())
	if !errors.Is(err, ErrNoLiveChat) {
		t.Errorf("err = %v, want ErrNoLiveChat", err)
	}
}

func TestBuildTokens_NoAPIKey(t *testing.T) {
	_, err := buildTokens(pageData{html: "<html>consent wall</html>"}, "dQw4w9WgXcQ", time.Now())
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestExtract_StaticAndCache(t *testing.T) {
	fetcher := &pageFetcherStub{html: watchPageHTML}
	counters := &Counters{}
	e := NewTokenExtractor(fetcher, nil, tokenCache(), counters, nil)

	tok, err := e.Extract(context.Background(), testVideoURL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if tok.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q, want dQw4w9WgXcQ", tok.VideoID)
	}

	// Second call is served from cache.
	again, err := e.Extract(context.Background(), testVideoURL)
	if err != nil {
		t.Fatalf("Extract (cached): %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1 (cache hit)", fetcher.calls)
	}
	if again != tok {
		t.Error("cached extract should return the same tokens")
	}
	if got := counters.ExtractionsStatic.Load(); got != 1 {
		t.Errorf("ExtractionsStatic = %d, want 1", got)
	}
}

func TestExtract_InvalidateForcesRefetch(t *testing.T) {
	fetcher := &pageFetcherStub{html: watchPageHTML}
	e := NewTokenExtractor(fetcher, nil, tokenCache(), nil, nil)

	if _, err := e.Extract(context.Background(), testVideoURL); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	e.Invalidate(testVideoURL)
	if _, err := e.Extract(context.Background(), testVideoURL); err != nil {
		t.Fatalf("Extract after invalidate: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher calls = %d, want 2 (invalidate dropped the cache)", fetcher.calls)
	}
}

func TestExtract_BrowserFallback(t *testing.T) {
	fetcher := &pageFetcherStub{err: errors.New("status 403")}
	browser := &browserStub{
		cfgJSON:     `{"INNERTUBE_API_KEY":"browser-key","INNERTUBE_CONTEXT_CLIENT_VERSION":"2.b"}`,
		initialData: `{"contents":{"twoColumnWatchNextResults":{"conversationBar":{"liveChatRenderer":{"continuations":[{"reloadContinuationData":{"continuation":"cont-browser"}}]}}}}}`,
	}
	counters := &Counters{}
	e := NewTokenExtractor(fetcher, browser, tokenCache(), counters, nil)

	tok, err := e.Extract(context.Background(), testVideoURL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if tok.APIKey != "browser-key" || tok.Continuation != "cont-browser" {
		t.Errorf("tokens = %q/%q, want browser-key/cont-browser", tok.APIKey, tok.Continuation)
	}
	if browser.calls != 1 {
		t.Errorf("browser calls = %d, want 1", browser.calls)
	}
	if got := counters.ExtractionsBrowser.Load(); got != 1 {
		t.Errorf("ExtractionsBrowser = %d, want 1", got)
	}
}

func TestExtract_BothVariantsFail(t *testing.T) {
	fetcher := &pageFetcherStub{err: errors.New("status 403")}
	browser := &browserStub{err: errors.New("browser down")}
	e := NewTokenExtractor(fetcher, browser, tokenCache(), nil, nil)

	_, err := e.Extract(context.Background(), testVideoURL)
	if err == nil {
		t.Fatal("Extract should fail when both variants fail")
	}
	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("err = %v, want *ExtractionError", err)
	}
	if exErr.Variant != "static" {
		t.Errorf("Variant = %q, want static (root cause)", exErr.Variant)
	}
}

func TestExtract_NoBrowserPropagatesStaticError(t *testing.T) {
	fetcher := &pageFetcherStub{html: noChatPageHTML}
	e := NewTokenExtractor(fetcher, nil, tokenCache(), nil, nil)

	_, err := e.Extract(context.Background(), testVideoURL)
	if !errors.Is(err, ErrNoLiveChat) {
		t.Errorf("err = %v, want ErrNoLiveChat", err)
	}
}

func TestExtract_BadURL(t *testing.T) {
	e := NewTokenExtractor(&pageFetcherStub{}, nil, tokenCache(), nil, nil)
	if _, err := e.Extract(context.Background(), "https://example.com/watch?v=zzz"); err == nil {
		t.Error("Extract should reject a non-YouTube URL")
	}
}

func TestAdvance_RotatesContinuation(t *testing.T) {
	fetcher := &pageFetcherStub{html: watchPageHTML}
	e := NewTokenExtractor(fetcher, nil, tokenCache(), nil, nil)

	tok, err := e.Extract(context.Background(), testVideoURL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	e.Advance(testVideoURL, "cont-next")
	rotated, err := e.Extract(context.Background(), testVideoURL)
	if err != nil {
		t.Fatalf("Extract after advance: %v", err)
	}
	if rotated.Continuation != "cont-next" {
		t.Errorf("Continuation = %q, want cont-next", rotated.Continuation)
	}
	if rotated.APIKey != tok.APIKey {
		t.Errorf("APIKey = %q, want unchanged %q", rotated.APIKey, tok.APIKey)
	}
	// The original pointer is untouched.
	if tok.Continuation != "cont-reload-1" {
		t.Errorf("old tokens mutated: Continuation = %q", tok.Continuation)
	}

	// Advancing an uncached URL or with an empty token is a no-op.
	e.Advance("https://www.youtube.com/watch?v=aaaaaaaaaaa", "x")
	e.Advance(testVideoURL, "")
	if again, _ := e.Extract(context.Background(), testVideoURL); again.Continuation != "cont-next" {
		t.Errorf("Continuation = %q, want cont-next after no-op advances", again.Continuation)
	}
}
