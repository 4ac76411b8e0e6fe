package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/store/memory"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	ms := memory.New()
	now := time.Now().UTC()
	_ = ms.SaveIdentity(context.Background(), &model.SenderIdentity{ID: "1", DisplayName: "One", FirstSeenAt: now, LastSeenAt: now})

	dest := &mockDestination{}
	sched := NewScheduler(ms, []Destination{dest}, 20*time.Millisecond, testLogger())
	sched.Start()

	// Initial export, then idle ticks with no changes.
	time.Sleep(100 * time.Millisecond)
	if writes := dest.writes.Load(); writes != 1 {
		t.Fatalf("writes before change = %d, want 1", writes)
	}

	_ = ms.SaveIdentity(context.Background(), &model.SenderIdentity{ID: "2", DisplayName: "Two", FirstSeenAt: now, LastSeenAt: now})
	time.Sleep(100 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes != 2 {
		t.Fatalf("writes after change = %d, want 2", writes)
	}
	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	// 1 header + 2 identities
	if lines := nonEmptyLines(string(data)); len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestRunOnce_WritesUnchanged(t *testing.T) {
	dest := &mockDestination{}
	sched := NewScheduler(memory.New(), []Destination{dest}, time.Minute, testLogger())
	for range 2 {
		if err := sched.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	}
	if writes := dest.writes.Load(); writes != 2 {
		t.Fatalf("writes = %d, want 2", writes)
	}
}

func TestSyncOnce_RetriesAfterFailure(t *testing.T) {
	dest := &mockDestination{err: errors.New("throttled")}
	sched := NewScheduler(memory.New(), []Destination{dest}, time.Minute, testLogger())
	sched.syncOnce(context.Background())
	dest.err = nil
	sched.syncOnce(context.Background())
	if writes := dest.writes.Load(); writes != 2 {
		t.Fatalf("writes = %d, want 2 (failed export must not be remembered)", writes)
	}
	sched.syncOnce(context.Background())
	if writes := dest.writes.Load(); writes != 2 {
		t.Fatalf("writes = %d, want 2 after unchanged run", writes)
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(memory.New(), nil, time.Minute, testLogger())
	// Stop without Start should not panic.
	sched.Stop()
}

func TestRunOnce_ContinuesPastFailingDestination(t *testing.T) {
	bad := &mockDestination{err: errors.New("bucket gone")}
	good := &mockDestination{}

	sched := NewScheduler(memory.New(), []Destination{bad, good}, time.Minute, testLogger())
	err := sched.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected first destination error")
	}
	if good.writes.Load() != 1 {
		t.Fatal("second destination should still be written")
	}
}

func TestFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identities.jsonl")
	dest := NewFileDestination(path)

	if err := dest.Write(context.Background(), []byte("first\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := dest.Write(context.Background(), []byte("second\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second\n" {
		t.Errorf("file = %q, want %q", got, "second\n")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestS3Destination_PutsObject(t *testing.T) {
	var (
		gotMethod atomic.Value
		gotPath   atomic.Value
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod.Store(r.Method)
		gotPath.Store(r.URL.Path)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	dest, err := NewS3Destination(context.Background(), "backups", "secretary/identities.jsonl", "us-east-1", srv.URL)
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	if err := dest.Write(context.Background(), []byte(`{"type":"header"}`+"\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if m, _ := gotMethod.Load().(string); m != http.MethodPut {
		t.Errorf("method = %q, want PUT", m)
	}
	if p, _ := gotPath.Load().(string); p != "/backups/secretary/identities.jsonl" {
		t.Errorf("path = %q", p)
	}
}

func TestDailyKey(t *testing.T) {
	day := time.Date(2026, 7, 9, 23, 0, 0, 0, time.UTC)
	for _, tc := range []struct{ key, want string }{
		{"secretary/identities.jsonl", "secretary/identities-2026-07-09.jsonl"},
		{"export", "export-2026-07-09.jsonl"},
	} {
		if got := dailyKey(tc.key, day); got != tc.want {
			t.Errorf("dailyKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}
