package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"granblueautomation/internal/config"
	"granblueautomation/internal/history"
	"granblueautomation/internal/startup"
	"granblueautomation/internal/update"
)

type fakeRecorder struct {
	got []startup.Outcome
	err error
}

func (f *fakeRecorder) Record(_ context.Context, o startup.Outcome) (history.Launch, error) {
	f.got = append(f.got, o)
	return history.Launch{}, f.err
}

type fakeSink struct {
	names []string
	props []map[string]any
}

func (f *fakeSink) Event(name string, props map[string]any) {
	f.names = append(f.names, name)
	f.props = append(f.props, props)
}

func TestOutcomeHookRecordsAndReports(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	sink := &fakeSink{}
	hook := outcomeHook(rec, sink)

	hook(startup.Outcome{Delay: time.Second, SplashFound: true, SplashClosed: true, MainShown: true})
	hook(startup.Outcome{Delay: time.Second, Err: &startup.FatalError{Window: "main", Op: "lookup", Err: startup.ErrWindowNotFound}})

	if len(rec.got) != 2 {
		t.Fatalf("expected 2 recorded outcomes, got %d", len(rec.got))
	}
	if len(sink.names) != 2 || sink.names[0] != "startup_transition" {
		t.Fatalf("unexpected events: %v", sink.names)
	}
	if sink.props[0]["delay_ms"] != int64(1000) || sink.props[0]["fatal"] != false {
		t.Fatalf("unexpected props: %v", sink.props[0])
	}
	if sink.props[1]["fatal"] != true || sink.props[1]["main_shown"] != false {
		t.Fatalf("unexpected props: %v", sink.props[1])
	}
}

func TestOutcomeHookToleratesNil(t *testing.T) {
	outcomeHook(nil, nil)(startup.Outcome{})
}

func TestSequencerOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults().Splash
	cfg.MaxDelay = 3
	opts := sequencerOptions(cfg, nil)
	if opts.Bounds != (startup.Bounds{Min: 1, Max: 3, Unit: time.Second}) {
		t.Fatalf("unexpected bounds: %+v", opts.Bounds)
	}
	if opts.SplashWindow != startup.SplashWindowName || opts.MainWindow != startup.MainWindowName {
		t.Fatalf("unexpected window names: %+v", opts)
	}
}

type fakeChecker struct {
	rel   update.Release
	newer bool
	err   error
}

func (f fakeChecker) Check(context.Context, string) (update.Release, bool, error) {
	return f.rel, f.newer, f.err
}

func TestAnnounceUpdateShowsNotice(t *testing.T) {
	sink := &fakeSink{}
	var notice, url string
	c := fakeChecker{rel: update.Release{Version: "v2.0.0", URL: "https://example.test/r"}, newer: true}
	announceUpdate(context.Background(), c, "1.9.0", sink, func(n, u string) { notice, url = n, u })

	if notice != "Update available: v1.9.0 -> v2.0.0" || url != "https://example.test/r" {
		t.Fatalf("unexpected notice %q url %q", notice, url)
	}
	if len(sink.names) != 1 || sink.names[0] != "update_available" {
		t.Fatalf("unexpected events: %v", sink.names)
	}
}

func TestAnnounceUpdateSilentWhenCurrentOrFailing(t *testing.T) {
	shown := false
	show := func(string, string) { shown = true }
	announceUpdate(context.Background(), fakeChecker{rel: update.Release{Version: "v1.0.0"}}, "1.0.0", nil, show)
	announceUpdate(context.Background(), fakeChecker{err: errors.New("offline")}, "1.0.0", nil, show)
	announceUpdate(context.Background(), nil, "1.0.0", nil, show)
	if shown {
		t.Fatalf("no notice expected")
	}
}

type memPrefs map[string]string

func (m memPrefs) StringWithFallback(key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func (m memPrefs) SetString(key, value string) { m[key] = value }

func TestColorSchemePersists(t *testing.T) {
	p := memPrefs{}
	if got := loadColorScheme(p); got != SchemeLight {
		t.Fatalf("default scheme = %q, want light", got)
	}
	saveColorScheme(p, loadColorScheme(p).Toggle())
	if got := loadColorScheme(p); got != SchemeDark {
		t.Fatalf("scheme after toggle = %q, want dark", got)
	}
	p[prefColorScheme] = "purple"
	if got := loadColorScheme(p); got != SchemeLight {
		t.Fatalf("unknown stored value should read as light, got %q", got)
	}
	if ParseColorScheme(" DARK ") != SchemeDark || SchemeDark.Toggle() != SchemeLight {
		t.Fatalf("parse/toggle mismatch")
	}
}
