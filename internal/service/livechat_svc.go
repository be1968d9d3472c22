package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/youtube"
	"github.com/ProgrammingInBlood/youtube-analytics-go/pkg/yturl"
)

// Page size bounds, enforced at the HTTP boundary and clamped here again.
const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

// ChatQuery is one aggregation request across up to a handful of streams.
type ChatQuery struct {
	URLs       []string
	PageSize   int
	After      time.Time // keep messages strictly newer than this
	ExcludeIDs []string  // drop these message IDs (client-side dedup)
}

// TokenSource yields usable session tokens per stream URL.
// *youtube.TokenExtractor satisfies it.
type TokenSource interface {
	Extract(ctx context.Context, rawURL string) (*model.SessionTokens, error)
	Invalidate(rawURL string)
	Advance(rawURL, continuation string)
}

// ChatSource fetches one page of raw chat items. *youtube.ChatPoller
// satisfies it.
type ChatSource interface {
	Poll(ctx context.Context, tok *model.SessionTokens, limit int) (*youtube.ChatBatch, error)
}

// LiveChatService aggregates live chat across streams: per-URL token
// extraction, chat polling and normalization feed a shared message store,
// which serves both response shapes.
type LiveChatService struct {
	extractor  TokenSource
	poller     ChatSource
	normalizer *youtube.Normalizer
	store      *cache.MessageStore
	timeout    time.Duration
	now        func() time.Time
}

// NewLiveChatService wires the service. timeout bounds one whole aggregation;
// a nil clock defaults to time.Now.
func NewLiveChatService(extractor TokenSource, poller ChatSource, normalizer *youtube.Normalizer, store *cache.MessageStore, timeout time.Duration, now func() time.Time) *LiveChatService {
	if now == nil {
		now = time.Now
	}
	return &LiveChatService{
		extractor:  extractor,
		poller:     poller,
		normalizer: normalizer,
		store:      store,
		timeout:    timeout,
		now:        now,
	}
}

// Snapshot returns the most recent PageSize messages across all requested
// streams, newest last, plus the pre-truncation total.
func (s *LiveChatService) Snapshot(ctx context.Context, q ChatQuery) *model.ChatSnapshot {
	msgs, errs := s.collect(ctx, q.URLs)
	msgs = filterMessages(msgs, q.After, q.ExcludeIDs)

	total := len(msgs)
	if size := clampPageSize(q.PageSize); len(msgs) > size {
		msgs = msgs[len(msgs)-size:]
	}

	return &model.ChatSnapshot{
		Messages:      msgs,
		Errors:        errs,
		TotalMessages: total,
		Timestamp:     s.now().UTC(),
	}
}

// Poll returns the first PageSize messages after the caller's cursor, oldest
// first, plus the cursor for the next call.
func (s *LiveChatService) Poll(ctx context.Context, q ChatQuery) *model.ChatPage {
	msgs, errs := s.collect(ctx, q.URLs)
	msgs = filterMessages(msgs, q.After, q.ExcludeIDs)

	hasMore := false
	if size := clampPageSize(q.PageSize); len(msgs) > size {
		msgs = msgs[:size]
		hasMore = true
	}

	last := ""
	switch {
	case len(msgs) > 0:
		last = msgs[len(msgs)-1].Timestamp.UTC().Format(time.RFC3339Nano)
	case !q.After.IsZero():
		// Nothing new: echo the cursor so the client keeps its position.
		last = q.After.UTC().Format(time.RFC3339Nano)
	}

	return &model.ChatPage{
		Messages:      msgs,
		Errors:        errs,
		HasMore:       hasMore,
		LastTimestamp: last,
	}
}

// collect fans out one goroutine per URL, each writing to its own slot, and
// merges the results. A failing URL contributes an error entry and nothing
// else; it never aborts the other streams.
func (s *LiveChatService) collect(ctx context.Context, urls []string) ([]model.ChatMessage, []model.ChatError) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	perURL := make([][]model.ChatMessage, len(urls))
	failures := make([]*model.ChatError, len(urls))

	var wg sync.WaitGroup
	for i, raw := range urls {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			msgs, err := s.fetchOne(ctx, raw)
			if err != nil {
				failures[i] = &model.ChatError{URL: raw, Message: err.Error()}
				return
			}
			perURL[i] = msgs
		}(i, raw)
	}
	wg.Wait()

	errs := make([]model.ChatError, 0, len(urls))
	for _, f := range failures {
		if f != nil {
			errs = append(errs, *f)
		}
	}
	return mergeMessages(perURL), errs
}

// fetchOne returns the cached history for one stream, polling the chat
// endpoint first unless the store was written within the freshness window.
func (s *LiveChatService) fetchOne(ctx context.Context, rawURL string) ([]model.ChatMessage, error) {
	ref, err := yturl.ParseVideo(rawURL)
	if err != nil {
		return nil, err
	}

	// Recent write: serve the store instead of hammering the endpoint.
	if s.store.Fresh(ref.VideoID) {
		return s.store.Get(ref.VideoID), nil
	}

	tok, err := s.extractor.Extract(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	batch, err := s.poller.Poll(ctx, tok, 0)
	if errors.Is(err, youtube.ErrStaleTokens) {
		// One re-extraction: the cached continuation likely expired.
		s.extractor.Invalidate(rawURL)
		if tok, err = s.extractor.Extract(ctx, rawURL); err != nil {
			return nil, err
		}
		batch, err = s.poller.Poll(ctx, tok, 0)
	}
	if err != nil {
		return nil, err
	}
	s.extractor.Advance(rawURL, batch.NextContinuation)

	src := model.SourceVideo{
		VideoID: ref.VideoID,
		Title:   tok.Title,
		URL:     yturl.WatchURL(ref.VideoID),
	}
	s.store.Merge(ref.VideoID, s.normalizer.Batch(batch.Items, src))
	return s.store.Get(ref.VideoID), nil
}

// mergeMessages concatenates per-stream histories into one timeline: sorted
// by timestamp ascending, deduplicated by ID with the first occurrence
// winning.
func mergeMessages(perURL [][]model.ChatMessage) []model.ChatMessage {
	n := 0
	for _, msgs := range perURL {
		n += len(msgs)
	}
	all := make([]model.ChatMessage, 0, n)
	for _, msgs := range perURL {
		all = append(all, msgs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})

	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, m := range all {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func filterMessages(msgs []model.ChatMessage, after time.Time, excludeIDs []string) []model.ChatMessage {
	if after.IsZero() && len(excludeIDs) == 0 {
		return msgs
	}
	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	out := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if !after.IsZero() && !m.Timestamp.After(after) {
			continue
		}
		if _, skip := exclude[m.ID]; skip {
			continue
		}
		out = append(out, m)
	}
	return out
}

func clampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}
