package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"captioner/internal/logging"
)

func mkdirAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	ts := time.Now().Add(-age)
	if err := os.Chtimes(path, ts, ts); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	dir := t.TempDir()
	oldDir := filepath.Join(dir, "old-run")
	recentDir := filepath.Join(dir, "recent-run")
	mkdirAged(t, oldDir, 2*time.Hour)
	mkdirAged(t, recentDir, 0)

	oldFile := filepath.Join(dir, "old.txt")
	if err := os.WriteFile(oldFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := time.Now().Add(-2 * time.Hour)
	_ = os.Chtimes(oldFile, ts, ts)

	result := CleanStale(context.Background(), dir, time.Hour, nil)
	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("unexpected removals %v", result.Removed)
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Fatal("recent directory should still exist")
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Fatal("files should be ignored")
	}
}

func TestCleanOrphanedKeepsActiveRuns(t *testing.T) {
	dir := t.TempDir()
	mkdirAged(t, filepath.Join(dir, "run-a"), 0)
	mkdirAged(t, filepath.Join(dir, "RUN-B"), 0)
	mkdirAged(t, filepath.Join(dir, "run-c"), 0)

	active := map[string]struct{}{"run-a": {}, "run-b": {}}
	result := CleanOrphaned(context.Background(), dir, active, logging.NewNop())
	if len(result.Removed) != 1 || filepath.Base(result.Removed[0]) != "run-c" {
		t.Fatalf("unexpected removals %v", result.Removed)
	}
}

func TestCleanStopsWhenCancelled(t *testing.T) {
	dir := t.TempDir()
	mkdirAged(t, filepath.Join(dir, "a"), 2*time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if result := CleanStale(ctx, dir, time.Hour, nil); len(result.Removed) != 0 {
		t.Fatalf("cancelled sweep removed %v", result.Removed)
	}
}

func TestListDirectories(t *testing.T) {
	if dirs, err := ListDirectories("/nonexistent/path/12345"); err != nil || dirs != nil {
		t.Fatalf("expected nil for missing dir, got %v %v", dirs, err)
	}

	dir := t.TempDir()
	run := filepath.Join(dir, "run-a")
	if err := os.MkdirAll(filepath.Join(run, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(run, "clip.wav"), make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(run, "sub", "clip.json"), make([]byte, 50), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := ListDirectories(dir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 || dirs[0].Name != "run-a" || dirs[0].Size != 150 {
		t.Fatalf("unexpected dirs %+v", dirs)
	}
	if TotalSize(dirs) != 150 {
		t.Fatalf("total = %d", TotalSize(dirs))
	}
}
