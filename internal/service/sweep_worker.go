package service

import (
	"context"
	"log"
	"time"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/cache"
	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
)

// SweepWorker is a periodic background job that evicts expired entries from
// the token, channel and message caches. Reads already check expiry
// themselves; sweeping just returns the memory.
type SweepWorker struct {
	tokens   *cache.TTLCache[*model.SessionTokens]
	channels *cache.TTLCache[*model.ChannelInfo]
	store    *cache.MessageStore
	interval time.Duration
	stopCh   chan struct{}
}

// NewSweepWorker creates a worker that ticks every interval.
func NewSweepWorker(tokens *cache.TTLCache[*model.SessionTokens], channels *cache.TTLCache[*model.ChannelInfo], store *cache.MessageStore, interval time.Duration) *SweepWorker {
	return &SweepWorker{
		tokens:   tokens,
		channels: channels,
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep loop. It runs one tick immediately, then
// every interval.
func (w *SweepWorker) Start(ctx context.Context) {
	log.Printf("sweeper: starting (interval=%s)", w.interval)

	w.tick()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-ctx.Done():
			log.Println("sweeper: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Println("sweeper: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *SweepWorker) Stop() {
	close(w.stopCh)
}

// tick runs one sweep across all caches.
func (w *SweepWorker) tick() {
	start := time.Now()

	tokens := w.tokens.Sweep()
	channels := w.channels.Sweep()
	videos := w.store.Sweep()

	if tokens+channels+videos == 0 {
		return
	}
	log.Printf("sweeper: tick complete, evicted %d token(s), %d channel(s), %d video history(ies) (%s)",
		tokens, channels, videos, time.Since(start).Round(time.Millisecond))
}
