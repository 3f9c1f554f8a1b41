package update

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func releaseServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Errorf("missing User-Agent")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckReportsNewerRelease(t *testing.T) {
	srv := releaseServer(t, http.StatusOK, `{"tag_name":"v2.5.0","html_url":"https://example.test/r/2.5.0","published_at":"2024-03-01T10:00:00Z"}`)
	c := New(Config{URL: srv.URL, Timeout: time.Second})

	rel, newer, err := c.Check(context.Background(), "2.4.1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !newer {
		t.Fatalf("v2.5.0 should be newer than 2.4.1")
	}
	if rel.URL != "https://example.test/r/2.5.0" {
		t.Fatalf("unexpected url %q", rel.URL)
	}
	if got, want := rel.Notice("2.4.1"), "Update available: v2.4.1 -> v2.5.0"; got != want {
		t.Fatalf("Notice() = %q, want %q", got, want)
	}
}

func TestCheckSameVersionIsNotNewer(t *testing.T) {
	srv := releaseServer(t, http.StatusOK, `{"tag_name":"1.0.0"}`)
	c := New(Config{URL: srv.URL})

	rel, newer, err := c.Check(context.Background(), "v1.0.0")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if newer {
		t.Fatalf("equal versions must not be reported as an update")
	}
	if rel.URL != ReleasesPage {
		t.Fatalf("missing html_url should fall back to the releases page, got %q", rel.URL)
	}
}

func TestLatestErrors(t *testing.T) {
	bad := releaseServer(t, http.StatusOK, `{"tag_name":"nightly"}`)
	if _, err := New(Config{URL: bad.URL}).Latest(context.Background()); !errors.Is(err, ErrBadVersion) {
		t.Fatalf("expected ErrBadVersion, got %v", err)
	}
	gone := releaseServer(t, http.StatusNotFound, `{"message":"Not Found"}`)
	if _, err := New(Config{URL: gone.URL}).Latest(context.Background()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	junk := releaseServer(t, http.StatusOK, `{`)
	if _, err := New(Config{URL: junk.URL}).Latest(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewer(t *testing.T) {
	cases := []struct {
		latest, current string
		want            bool
	}{
		{"v1.2.0", "1.1.9", true},
		{"1.2.0", "v1.2.0", false},
		{"v1.1.0", "1.2.0", false},
		{"0.1.0", "0.1.0-dev", true},
		{"v3.0.0", "", true},
		{"v3.0.0", "unknown", true},
		{"latest", "1.0.0", false},
	}
	for _, tc := range cases {
		if got := Newer(tc.latest, tc.current); got != tc.want {
			t.Errorf("Newer(%q, %q) = %v, want %v", tc.latest, tc.current, got, tc.want)
		}
	}
}

func TestNoticeWithoutCurrentVersion(t *testing.T) {
	if got := (Release{Version: "2.0.0"}).Notice(""); got != "Update available: v2.0.0" {
		t.Fatalf("unexpected notice %q", got)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvURL, "http://localhost:1/latest")
	t.Setenv(EnvTimeoutMs, "250")
	cfg := FromEnv()
	if cfg.URL != "http://localhost:1/latest" || cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("unexpected config %+v", cfg)
	}
	t.Setenv(EnvURL, "")
	if FromEnv().URL != DefaultURL {
		t.Fatalf("expected default url")
	}
}
