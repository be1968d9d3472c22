package youtube

import "testing"

func TestExtractJSON_Balanced(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"flat object", `{"a":1};rest`, `{"a":1}`},
		{"nested objects", `{"a":{"b":{"c":3}}}tail`, `{"a":{"b":{"c":3}}}`},
		{"brace inside string", `{"a":"}{"}tail`, `{"a":"}{"}`},
		{"escaped quote inside string", `{"a":"say \"hi\" {now}"}x`, `{"a":"say \"hi\" {now}"}`},
		{"trailing backslash in string", `{"a":"c:\\"}x`, `{"a":"c:\\"}`},
		{"not an object", `["a"]`, ""},
		{"unbalanced", `{"a":{"b":1}`, ""},
		{"empty input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFindYtcfg_SkipsSmallSetCalls(t *testing.T) {
	// Pages call ytcfg.set several times; only the blob with the InnerTube
	// key matters.
	html := `<script>ytcfg.set({"EVENT_ID":"abc"});ytcfg.set({"INNERTUBE_API_KEY":"key-1","INNERTUBE_CONTEXT_CLIENT_VERSION":"2.1"});</script>`
	got := findYtcfg(html)
	want := `{"INNERTUBE_API_KEY":"key-1","INNERTUBE_CONTEXT_CLIENT_VERSION":"2.1"}`
	if got != want {
		t.Errorf("findYtcfg = %q, want %q", got, want)
	}
}

func TestFindYtcfg_Missing(t *testing.T) {
	if got := findYtcfg(`<script>ytcfg.set({"EVENT_ID":"abc"});</script>`); got != "" {
		t.Errorf("findYtcfg = %q, want empty", got)
	}
	if got := findYtcfg(`<html>no config here</html>`); got != "" {
		t.Errorf("findYtcfg = %q, want empty", got)
	}
}

func TestFindInitialData_MarkerVariants(t *testing.T) {
	blob := `{"contents":{"ok":true}}`
	pages := []string{
		`<script>var ytInitialData = ` + blob + `;</script>`,
		`<script>window["ytInitialData"] = ` + blob + `;</script>`,
		`<script>ytInitialData = ` + blob + `;</script>`,
	}
	for _, html := range pages {
		if got := findInitialData(html); got != blob {
			t.Errorf("findInitialData(%q) = %q, want %q", html[:30], got, blob)
		}
	}
	if got := findInitialData("<html></html>"); got != "" {
		t.Errorf("findInitialData on empty page = %q, want empty", got)
	}
}

func TestFindPlayerResponse(t *testing.T) {
	blob := `{"videoDetails":{"title":"T","author":"A"}}`
	html := `<script>var ytInitialPlayerResponse = ` + blob + `;var meta = 1;</script>`
	if got := findPlayerResponse(html); got != blob {
		t.Errorf("findPlayerResponse = %q, want %q", got, blob)
	}
}

func TestFirstMatch_OrderedFallback(t *testing.T) {
	html := `{"clientVersion":"2.alt"}`
	if got := firstMatch(html, clientVersionRe, clientVersionAltRe); got != "2.alt" {
		t.Errorf("firstMatch = %q, want %q (alternate pattern)", got, "2.alt")
	}
	html = `{"INNERTUBE_CONTEXT_CLIENT_VERSION":"2.main","clientVersion":"2.alt"}`
	if got := firstMatch(html, clientVersionRe, clientVersionAltRe); got != "2.main" {
		t.Errorf("firstMatch = %q, want %q (primary pattern wins)", got, "2.main")
	}
	if got := firstMatch("", clientVersionRe); got != "" {
		t.Errorf("firstMatch on empty input = %q, want empty", got)
	}
}
