package youtube

import (
	"regexp"
	"strings"
)

// Raw HTML fallbacks, used when the structured blobs are missing or refuse
// to parse.
var (
	apiKeyRe           = regexp.MustCompile(`"INNERTUBE_API_KEY":"([^"]+)"`)
	clientVersionRe    = regexp.MustCompile(`"INNERTUBE_CONTEXT_CLIENT_VERSION":"([^"]+)"`)
	clientVersionAltRe = regexp.MustCompile(`"clientVersion":"([^"]+)"`)
	visitorDataRe      = regexp.MustCompile(`"VISITOR_DATA":"([^"]+)"`)
	visitorDataAltRe   = regexp.MustCompile(`"visitorData":"([^"]+)"`)
	continuationRe     = regexp.MustCompile(`"continuation":"([^"]+)"`)
	authorRe           = regexp.MustCompile(`"author":"([^"]+)"`)
)

func firstMatch(s string, res ...*regexp.Regexp) string {
	if s == "" {
		return ""
	}
	for _, re := range res {
		if m := re.FindStringSubmatch(s); len(m) >= 2 {
			return m[1]
		}
	}
	return ""
}

var initialDataMarkers = []string{
	"var ytInitialData = ",
	`window["ytInitialData"] = `,
	"ytInitialData = ",
}

var playerResponseMarkers = []string{
	"var ytInitialPlayerResponse = ",
	"ytInitialPlayerResponse = ",
}

// findInitialData returns the ytInitialData JSON blob embedded in a page.
func findInitialData(html string) string {
	return findMarkedJSON(html, initialDataMarkers)
}

// findPlayerResponse returns the ytInitialPlayerResponse JSON blob.
func findPlayerResponse(html string) string {
	return findMarkedJSON(html, playerResponseMarkers)
}

// findYtcfg returns the first ytcfg.set({...}) argument carrying an
// InnerTube key. Pages call ytcfg.set several times; only the big config
// object matters.
func findYtcfg(html string) string {
	const marker = "ytcfg.set("
	idx := 0
	for {
		i := strings.Index(html[idx:], marker)
		if i < 0 {
			return ""
		}
		start := idx + i + len(marker)
		if start >= len(html) {
			return ""
		}
		if blob := extractJSON(html[start:]); blob != "" && strings.Contains(blob, "INNERTUBE_API_KEY") {
			return blob
		}
		idx = start
	}
}

func findMarkedJSON(html string, markers []string) string {
	for _, m := range markers {
		i := strings.Index(html, m)
		if i < 0 {
			continue
		}
		if blob := extractJSON(html[i+len(m):]); blob != "" {
			return blob
		}
	}
	return ""
}

// extractJSON returns the balanced {...} prefix of s, tracking string
// literals so braces inside values do not end the scan early.
func extractJSON(s string) string {
	if len(s) == 0 || s[0] != '{' {
		return ""
	}
	depth := 0
	inStr := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch c {
			case '\\':
				i++ // skip the escaped character
			case '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
