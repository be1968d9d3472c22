package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
)

// MessageStore keeps recent chat messages per video: deduplicated by message
// ID, ordered by timestamp ascending, capped per video (oldest evicted first).
// An entry expires ttl after its last write; a video written to within the
// freshness window does not need a refetch.
type MessageStore struct {
	mu     sync.RWMutex
	videos map[string]*videoEntry

	maxPerVideo int
	ttl         time.Duration
	fresh       time.Duration
	now         Clock
}

type videoEntry struct {
	msgs      []model.ChatMessage
	ids       map[string]struct{}
	lastWrite time.Time
}

// NewMessageStore creates a store capping each video at maxPerVideo messages.
func NewMessageStore(maxPerVideo int, ttl, fresh time.Duration, now Clock) *MessageStore {
	if now == nil {
		now = time.Now
	}
	return &MessageStore{
		videos:      make(map[string]*videoEntry),
		maxPerVideo: maxPerVideo,
		ttl:         ttl,
		fresh:       fresh,
		now:         now,
	}
}

// Merge adds msgs to the video's entry, skipping IDs already present, and
// returns how many were actually added. The entry stays sorted by timestamp
// and capped at maxPerVideo.
func (s *MessageStore) Merge(videoID string, msgs []model.ChatMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.videos[videoID]
	if e == nil || s.expiredLocked(e) {
		e = &videoEntry{ids: make(map[string]struct{})}
		s.videos[videoID] = e
	}

	added := 0
	for _, m := range msgs {
		if _, dup := e.ids[m.ID]; dup {
			continue
		}
		e.ids[m.ID] = struct{}{}
		e.msgs = append(e.msgs, m)
		added++
	}

	if added > 0 {
		sort.SliceStable(e.msgs, func(i, j int) bool {
			return e.msgs[i].Timestamp.Before(e.msgs[j].Timestamp)
		})
	}
	if over := len(e.msgs) - s.maxPerVideo; over > 0 {
		for _, old := range e.msgs[:over] {
			delete(e.ids, old.ID)
		}
		e.msgs = append([]model.ChatMessage(nil), e.msgs[over:]...)
	}

	e.lastWrite = s.now()
	return added
}

// Get returns a copy of the video's messages, or nil if absent or expired.
func (s *MessageStore) Get(videoID string) []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.videos[videoID]
	if e == nil || s.expiredLocked(e) {
		return nil
	}
	out := make([]model.ChatMessage, len(e.msgs))
	copy(out, e.msgs)
	return out
}

// Fresh reports whether the video was written to within the freshness window,
// meaning a poll can be skipped.
func (s *MessageStore) Fresh(videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.videos[videoID]
	if e == nil || s.expiredLocked(e) {
		return false
	}
	return s.now().Sub(e.lastWrite) <= s.fresh
}

// Count returns how many messages are cached for the video.
func (s *MessageStore) Count(videoID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.videos[videoID]
	if e == nil || s.expiredLocked(e) {
		return 0
	}
	return len(e.msgs)
}

// Len returns the number of videos with a live entry, expired ones included
// until swept.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// Sweep drops expired video entries and returns how many were removed.
func (s *MessageStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.videos {
		if s.expiredLocked(e) {
			delete(s.videos, id)
			removed++
		}
	}
	return removed
}

func (s *MessageStore) expiredLocked(e *videoEntry) bool {
	return !e.lastWrite.IsZero() && s.now().Sub(e.lastWrite) > s.ttl
}
