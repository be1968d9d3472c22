package yturl

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrBadVideoURL is returned when an input cannot be resolved to a video ID.
	ErrBadVideoURL = errors.New("not a recognizable YouTube video URL")
	// ErrBadChannelURL is returned when an input cannot be resolved to a channel.
	ErrBadChannelURL = errors.New("not a recognizable YouTube channel URL")
)

var (
	videoIDRe   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	channelIDRe = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	handleRe    = regexp.MustCompile(`^[A-Za-z0-9._-]{3,30}$`)
)

// VideoRef identifies a single YouTube video by its canonical 11-character ID.
type VideoRef struct {
	VideoID string
}

// ChannelKind classifies how a channel was referenced in the input URL.
type ChannelKind int

const (
	ChannelID     ChannelKind = iota // /channel/UC...
	ChannelHandle                    // /@handle
	ChannelLegacy                    // /c/name or /user/name
)

// ChannelRef identifies a YouTube channel. Value holds the ID, handle
// (without '@') or legacy name depending on Kind.
type ChannelRef struct {
	Kind  ChannelKind
	Value string
}

// ParseVideo resolves any accepted YouTube video URL shape (watch, youtu.be,
// live, embed, shorts, bare ID, scheme-less, mobile/music hosts) to a VideoRef.
func ParseVideo(raw string) (VideoRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return VideoRef{}, ErrBadVideoURL
	}
	if videoIDRe.MatchString(s) {
		return VideoRef{VideoID: s}, nil
	}

	u, err := parseURL(s)
	if err != nil {
		return VideoRef{}, fmt.Errorf("%w: %q", ErrBadVideoURL, raw)
	}

	host := normalizeHost(u.Hostname())
	segs := pathSegments(u)

	switch {
	case host == "youtu.be":
		if len(segs) >= 1 && videoIDRe.MatchString(segs[0]) {
			return VideoRef{VideoID: segs[0]}, nil
		}
	case isYouTubeHost(host):
		if id := u.Query().Get("v"); videoIDRe.MatchString(id) {
			return VideoRef{VideoID: id}, nil
		}
		if len(segs) >= 2 && videoIDRe.MatchString(segs[1]) {
			switch segs[0] {
			case "live", "embed", "shorts", "v":
				return VideoRef{VideoID: segs[1]}, nil
			}
		}
	}

	return VideoRef{}, fmt.Errorf("%w: %q", ErrBadVideoURL, raw)
}

// ParseChannel resolves a channel URL, bare @handle or bare UC... ID to a
// ChannelRef. Trailing sub-paths like /streams or /videos are tolerated.
func ParseChannel(raw string) (ChannelRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ChannelRef{}, ErrBadChannelURL
	}
	if channelIDRe.MatchString(s) {
		return ChannelRef{Kind: ChannelID, Value: s}, nil
	}
	if strings.HasPrefix(s, "@") && handleRe.MatchString(s[1:]) {
		return ChannelRef{Kind: ChannelHandle, Value: s[1:]}, nil
	}

	u, err := parseURL(s)
	if err != nil {
		return ChannelRef{}, fmt.Errorf("%w: %q", ErrBadChannelURL, raw)
	}
	if !isYouTubeHost(normalizeHost(u.Hostname())) {
		return ChannelRef{}, fmt.Errorf("%w: %q", ErrBadChannelURL, raw)
	}

	segs := pathSegments(u)
	if len(segs) == 0 {
		return ChannelRef{}, fmt.Errorf("%w: %q", ErrBadChannelURL, raw)
	}

	switch {
	case segs[0] == "channel" && len(segs) >= 2 && channelIDRe.MatchString(segs[1]):
		return ChannelRef{Kind: ChannelID, Value: segs[1]}, nil
	case strings.HasPrefix(segs[0], "@") && handleRe.MatchString(segs[0][1:]):
		return ChannelRef{Kind: ChannelHandle, Value: segs[0][1:]}, nil
	case (segs[0] == "c" || segs[0] == "user") && len(segs) >= 2 && segs[1] != "":
		return ChannelRef{Kind: ChannelLegacy, Value: segs[1]}, nil
	}

	return ChannelRef{}, fmt.Errorf("%w: %q", ErrBadChannelURL, raw)
}

// WatchURL returns the canonical watch page URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ChannelURL returns the canonical channel page URL for a ChannelRef.
func (r ChannelRef) ChannelURL() string {
	switch r.Kind {
	case ChannelHandle:
		return "https://www.youtube.com/@" + r.Value
	case ChannelLegacy:
		return "https://www.youtube.com/c/" + r.Value
	default:
		return "https://www.youtube.com/channel/" + r.Value
	}
}

// StreamsURL returns the channel's live streams tab URL.
func (r ChannelRef) StreamsURL() string {
	return r.ChannelURL() + "/streams"
}

func parseURL(s string) (*url.URL, error) {
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Hostname() == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func isYouTubeHost(host string) bool {
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		return true
	}
	return false
}

func pathSegments(u *url.URL) []string {
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
