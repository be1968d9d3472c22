package youtube

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// BrowserState is the lifecycle state of the shared headless browser.
type BrowserState int32

const (
	BrowserUninitialized BrowserState = iota
	BrowserCreating
	BrowserReady
	BrowserDisconnected
)

func (s BrowserState) String() string {
	switch s {
	case BrowserCreating:
		return "creating"
	case BrowserReady:
		return "ready"
	case BrowserDisconnected:
		return "disconnected"
	default:
		return "uninitialized"
	}
}

// BrowserConfig controls how the headless browser is launched and driven.
type BrowserConfig struct {
	ExecPath        string // optional Chrome executable override
	RemoteURL       string // optional remote debugger URL; attach instead of launch
	NavTimeout      time.Duration
	SelectorTimeout time.Duration
	ScreenshotDir   string // failure screenshots land here; empty disables
}

// BrowserManager owns one headless browser for the whole process. Concurrent
// acquisitions during launch share a single in-flight creation; each
// extraction runs in its own tab, released on every exit path; a dead browser
// moves the manager to disconnected and the next acquisition relaunches.
type BrowserManager struct {
	cfg      BrowserConfig
	counters *Counters

	mu            sync.Mutex
	state         BrowserState
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	readyCh       chan struct{}
	launchErr     error
	generation    int

	// launch hook, replaced in tests
	launchFn func() (context.Context, context.CancelFunc, context.CancelFunc, error)
}

// NewBrowserManager creates a manager in the uninitialized state. Nothing is
// launched until the first acquisition.
func NewBrowserManager(cfg BrowserConfig, counters *Counters) *BrowserManager {
	if counters == nil {
		counters = &Counters{}
	}
	m := &BrowserManager{cfg: cfg, counters: counters}
	m.launchFn = m.chromedpLaunch
	return m
}

// State returns the current lifecycle state.
func (m *BrowserManager) State() BrowserState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// FetchPageData navigates a fresh tab to the watch URL, waits for the chat
// frame to mount and evaluates the ytcfg and ytInitialData blobs in page
// context. On failure it captures a debug screenshot before the tab closes.
func (m *BrowserManager) FetchPageData(ctx context.Context, videoURL string) (string, string, error) {
	bctx, err := m.acquire(ctx)
	if err != nil {
		return "", "", err
	}

	tabCtx, cancelTab := chromedp.NewContext(bctx)
	defer cancelTab()

	runCtx, cancelRun := context.WithTimeout(tabCtx, m.cfg.NavTimeout)
	defer cancelRun()

	var cfgJSON, initialData string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(videoURL),
		m.waitChatFrame(),
		chromedp.Evaluate(`JSON.stringify(window.ytcfg && window.ytcfg.data_ || {})`, &cfgJSON),
		chromedp.Evaluate(`JSON.stringify(window.ytInitialData || {})`, &initialData),
	)
	if err != nil {
		m.captureFailure(tabCtx, videoURL)
		return "", "", fmt.Errorf("browser extract %s: %w", videoURL, err)
	}
	return cfgJSON, initialData, nil
}

// acquire returns a live browser context, launching at most one browser even
// under concurrent callers.
func (m *BrowserManager) acquire(ctx context.Context) (context.Context, error) {
	m.mu.Lock()
	switch m.state {
	case BrowserReady:
		bctx := m.browserCtx
		m.mu.Unlock()
		return bctx, nil

	case BrowserCreating:
		ch := m.readyCh
		m.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

	default: // uninitialized or disconnected: this caller launches
		m.state = BrowserCreating
		m.readyCh = make(chan struct{})
		ch := m.readyCh
		m.mu.Unlock()
		m.launch()
		<-ch
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == BrowserReady {
		return m.browserCtx, nil
	}
	return nil, m.launchErr
}

// launch runs the launch hook and publishes the result. Always closes the
// ready channel so waiters never hang.
func (m *BrowserManager) launch() {
	bctx, cancelBrowser, cancelAlloc, err := m.launchFn()

	m.mu.Lock()
	if err != nil {
		m.state = BrowserDisconnected
		m.launchErr = fmt.Errorf("launch browser: %w", err)
		close(m.readyCh)
		m.mu.Unlock()
		log.Printf("browser: launch failed: %v", err)
		return
	}

	m.state = BrowserReady
	m.browserCtx = bctx
	m.cancelBrowser = cancelBrowser
	m.cancelAlloc = cancelAlloc
	m.launchErr = nil
	gen := m.generation
	close(m.readyCh)
	m.mu.Unlock()

	m.counters.BrowserLaunches.Add(1)
	log.Printf("browser: launched (remote=%v)", m.cfg.RemoteURL != "")
	go m.watch(bctx, gen)
}

// chromedpLaunch starts (or attaches to) Chrome and verifies it is alive.
func (m *BrowserManager) chromedpLaunch() (context.Context, context.CancelFunc, context.CancelFunc, error) {
	var allocCtx context.Context
	var cancelAlloc context.CancelFunc

	if m.cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), m.cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("mute-audio", true),
		)
		if m.cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	// Empty run forces the browser process up so failures surface here
	// instead of mid-extraction.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, nil, nil, err
	}
	return browserCtx, cancelBrowser, cancelAlloc, nil
}

// watch resets the manager when the browser context dies underneath us.
func (m *BrowserManager) watch(bctx context.Context, gen int) {
	<-bctx.Done()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.state != BrowserReady {
		return // already reset or shut down
	}
	m.counters.BrowserCrashes.Add(1)
	log.Printf("browser: disconnected: %v", context.Cause(bctx))
	m.resetLocked()
}

// Shutdown closes the browser if one is running.
func (m *BrowserManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == BrowserReady || m.state == BrowserDisconnected {
		m.resetLocked()
		m.state = BrowserUninitialized
	}
}

func (m *BrowserManager) resetLocked() {
	if m.cancelBrowser != nil {
		m.cancelBrowser()
	}
	if m.cancelAlloc != nil {
		m.cancelAlloc()
	}
	m.cancelBrowser = nil
	m.cancelAlloc = nil
	m.browserCtx = nil
	m.state = BrowserDisconnected
	m.generation++
}

// waitChatFrame waits (bounded) for the live chat frame to mount. A missing
// frame is not fatal: ytInitialData still tells the full story and the token
// builder reports the precise error.
func (m *BrowserManager) waitChatFrame() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		wctx, cancel := context.WithTimeout(ctx, m.cfg.SelectorTimeout)
		defer cancel()
		err := chromedp.WaitVisible(`ytd-live-chat-frame#chat`, chromedp.ByQuery).Do(wctx)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	})
}

// captureFailure writes a screenshot of the failed tab for operator
// inspection. Best effort; the tab is about to close either way.
func (m *BrowserManager) captureFailure(tabCtx context.Context, videoURL string) {
	if m.cfg.ScreenshotDir == "" {
		return
	}
	sctx, cancel := context.WithTimeout(tabCtx, 5*time.Second)
	defer cancel()

	var buf []byte
	err := chromedp.Run(sctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	}))
	if err != nil {
		log.Printf("browser: screenshot failed for %s: %v", videoURL, err)
		return
	}

	name := fmt.Sprintf("extract-%s-%s.png", sanitizeFileName(videoURL), time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(m.cfg.ScreenshotDir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		log.Printf("browser: write screenshot %s: %v", path, err)
		return
	}
	log.Printf("browser: wrote failure screenshot %s", path)
}

func sanitizeFileName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
		if b.Len() >= 48 {
			break
		}
	}
	return b.String()
}
