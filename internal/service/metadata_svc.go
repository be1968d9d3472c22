package service

import (
	"context"
	"sync"
	"time"

	"github.com/ProgrammingInBlood/youtube-analytics-go/internal/model"
	"github.com/ProgrammingInBlood/youtube-analytics-go/pkg/yturl"
)

// MetadataSource resolves one video's metadata. *youtube.MetadataFetcher
// satisfies it.
type MetadataSource interface {
	Fetch(ctx context.Context, videoID string) model.VideoMetadata
}

// MetadataService resolves metadata for a batch of video URLs with the same
// fan-out and error isolation as live chat: one slot per URL, input order
// preserved, failures inline.
type MetadataService struct {
	fetcher MetadataSource
	timeout time.Duration
}

func NewMetadataService(fetcher MetadataSource, timeout time.Duration) *MetadataService {
	return &MetadataService{fetcher: fetcher, timeout: timeout}
}

// Fetch resolves metadata for every URL. The result always has one entry per
// input URL, in input order; a URL that cannot be parsed or resolved gets an
// entry with Error set and zeroed counts.
func (s *MetadataService) Fetch(ctx context.Context, urls []string) *model.MetadataResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	entries := make([]model.VideoMetadata, len(urls))
	var wg sync.WaitGroup
	for i, raw := range urls {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			ref, err := yturl.ParseVideo(raw)
			if err != nil {
				entries[i] = model.VideoMetadata{Error: err.Error()}
				return
			}
			entries[i] = s.fetcher.Fetch(ctx, ref.VideoID)
		}(i, raw)
	}
	wg.Wait()

	errs := make([]string, 0, len(urls))
	for i, e := range entries {
		if e.Error != "" {
			errs = append(errs, urls[i]+": "+e.Error)
		}
	}
	return &model.MetadataResult{Metadata: entries, Errors: errs}
}
