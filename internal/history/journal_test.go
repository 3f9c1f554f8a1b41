package history

import (
	"context"
	"testing"
	"time"

	"granblueautomation/internal/startup"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ok := startup.Outcome{Started: base, Finished: base.Add(time.Second), Delay: time.Second, SplashFound: true, SplashClosed: true, MainShown: true}
	failed := startup.Outcome{
		Started: base.Add(time.Minute), Finished: base.Add(time.Minute + time.Second), Delay: time.Second,
		Err: &startup.FatalError{Window: "main", Op: "lookup", Err: startup.ErrWindowNotFound},
	}
	first, err := j.Record(ctx, ok)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == "" || !first.Succeeded() {
		t.Fatalf("unexpected launch: %+v", first)
	}
	if _, err := j.Record(ctx, failed); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := j.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 launches, got %d", len(got))
	}
	if got[0].Succeeded() || got[0].Error == "" {
		t.Fatalf("newest launch should be the failed one: %+v", got[0])
	}
	if got[1].ID != first.ID || got[1].Delay != time.Second || !got[1].StartedAt.Equal(base) {
		t.Fatalf("older launch mismatch: %+v", got[1])
	}

	last, found, err := j.Last(ctx)
	if err != nil || !found {
		t.Fatalf("Last: %v %v", found, err)
	}
	if last.ID != got[0].ID {
		t.Fatalf("Last() = %s, want %s", last.ID, got[0].ID)
	}
}

func TestLastOnEmptyJournal(t *testing.T) {
	j := openTemp(t)
	_, found, err := j.Last(context.Background())
	if err != nil || found {
		t.Fatalf("expected no launches, got found=%v err=%v", found, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := j.Record(context.Background(), startup.Outcome{Started: time.Now(), Finished: time.Now(), MainShown: true}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = j.Close()

	j2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	ls, err := j2.Recent(context.Background(), 0)
	if err != nil || len(ls) != 1 {
		t.Fatalf("expected 1 launch after reopen, got %d (%v)", len(ls), err)
	}
}

func TestOpenRequiresDir(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
