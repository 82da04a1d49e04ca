package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/testsupport"
)

type collector struct {
	mu       sync.Mutex
	settled  []string
	degraded int
}

func (c *collector) onSettled(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settled = append(c.settled, path)
}

func (c *collector) onUnreachable(config.WatchedFolder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.degraded++
}

func (c *collector) paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.settled...)
}

func (c *collector) degradations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, folder config.WatchedFolder, tuning Tuning) (*FolderWatcher, *collector) {
	t.Helper()

	c := &collector{}
	w := New(folder, tuning, c.onSettled, c.onUnreachable, logging.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, c
}

func fastTuning() Tuning {
	return Tuning{
		Debounce:      50 * time.Millisecond,
		SettleChecks:  2,
		ProbeInterval: 50 * time.Millisecond,
	}
}

func TestSettledFileIsEmittedOnce(t *testing.T) {
	dir := t.TempDir()
	_, c := startWatcher(t, config.WatchedFolder{
		Path:    dir,
		Enabled: true,
		Kind:    config.FolderLocal,
	}, fastTuning())

	path := testsupport.WriteFile(t, dir, "report.pdf", "content")

	if !waitFor(t, 3*time.Second, func() bool { return len(c.paths()) >= 1 }) {
		t.Fatal("file never settled")
	}
	// No further events; the count must stay at one.
	time.Sleep(200 * time.Millisecond)
	got := c.paths()
	if len(got) != 1 || got[0] != path {
		t.Fatalf("settled paths = %v, want exactly [%s]", got, path)
	}
}

func TestIncrementalWritesEmitOnce(t *testing.T) {
	dir := t.TempDir()
	_, c := startWatcher(t, config.WatchedFolder{
		Path:    dir,
		Enabled: true,
		Kind:    config.FolderLocal,
	}, fastTuning())

	// Five chunks spaced inside the debounce window look like one download.
	path := filepath.Join(dir, "archive.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("chunk of archive data\n"); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
		if err := f.Sync(); err != nil {
			t.Fatalf("sync chunk %d: %v", i, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return len(c.paths()) >= 1 }) {
		t.Fatal("file never settled")
	}
	time.Sleep(300 * time.Millisecond)
	if got := c.paths(); len(got) != 1 {
		t.Fatalf("incremental write must settle exactly once, got %v", got)
	}
}

func TestTemporaryArtifactsIgnored(t *testing.T) {
	dir := t.TempDir()
	_, c := startWatcher(t, config.WatchedFolder{
		Path:    dir,
		Enabled: true,
		Kind:    config.FolderLocal,
	}, fastTuning())

	testsupport.WriteFile(t, dir, "download.crdownload", "partial")
	testsupport.WriteFile(t, dir, "scratch.tmp", "partial")
	testsupport.WriteFile(t, dir, ".hidden", "dotfile")
	testsupport.WriteFile(t, dir, "real.txt", "done")

	if !waitFor(t, 3*time.Second, func() bool { return len(c.paths()) >= 1 }) {
		t.Fatal("real file never settled")
	}
	got := c.paths()
	if len(got) != 1 || filepath.Base(got[0]) != "real.txt" {
		t.Fatalf("only real.txt should settle, got %v", got)
	}
}

func TestRecursiveWatchPicksUpNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	_, c := startWatcher(t, config.WatchedFolder{
		Path:      dir,
		Recursive: true,
		Enabled:   true,
		Kind:      config.FolderLocal,
	}, fastTuning())

	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the event loop a beat to register the new directory.
	time.Sleep(100 * time.Millisecond)
	path := testsupport.WriteFile(t, sub, "deep.txt", "nested content")

	if !waitFor(t, 3*time.Second, func() bool { return len(c.paths()) >= 1 }) {
		t.Fatal("nested file never settled")
	}
	if got := c.paths(); got[0] != path {
		t.Fatalf("settled %v, want %s", got, path)
	}
}

func TestNonRecursiveIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, c := startWatcher(t, config.WatchedFolder{
		Path:    dir,
		Enabled: true,
		Kind:    config.FolderLocal,
	}, fastTuning())

	testsupport.WriteFile(t, sub, "deep.txt", "nested")
	testsupport.WriteFile(t, dir, "top.txt", "top level")

	if !waitFor(t, 3*time.Second, func() bool { return len(c.paths()) >= 1 }) {
		t.Fatal("top-level file never settled")
	}
	time.Sleep(200 * time.Millisecond)
	got := c.paths()
	if len(got) != 1 || filepath.Base(got[0]) != "top.txt" {
		t.Fatalf("non-recursive watcher must only see top-level files, got %v", got)
	}
}

func TestMissingFolderDegradesOnStart(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	w, c := startWatcher(t, config.WatchedFolder{
		Path:    missing,
		Enabled: true,
		Kind:    config.FolderUNC,
	}, fastTuning())

	if !w.Suspended() {
		t.Fatal("watcher must be suspended when the folder is missing")
	}
	if c.degradations() != 1 {
		t.Fatalf("expected one degradation callback, got %d", c.degradations())
	}
	if err := w.Resume(); err == nil {
		t.Fatal("Resume must fail while the folder is still missing")
	}
}

func TestResumePicksUpExistingFiles(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "share")
	w, c := startWatcher(t, config.WatchedFolder{
		Path:    root,
		Enabled: true,
		Kind:    config.FolderUNC,
	}, fastTuning())
	if !w.Suspended() {
		t.Fatal("watcher must start suspended")
	}

	// Folder comes back with a file already in it.
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := testsupport.WriteFile(t, root, "waiting.txt", "arrived while offline")

	if err := w.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if w.Suspended() {
		t.Fatal("watcher must not be suspended after Resume")
	}
	if !waitFor(t, 3*time.Second, func() bool { return len(c.paths()) >= 1 }) {
		t.Fatal("pre-existing file never settled after Resume")
	}
	if got := c.paths(); got[0] != path {
		t.Fatalf("settled %v, want %s", got, path)
	}
}

func TestProbeDetectsVanishedFolder(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "share")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	w, c := startWatcher(t, config.WatchedFolder{
		Path:    root,
		Enabled: true,
		Kind:    config.FolderUNC,
	}, fastTuning())
	if w.Suspended() {
		t.Fatal("watcher must start healthy")
	}

	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !waitFor(t, 3*time.Second, func() bool { return c.degradations() == 1 }) {
		t.Fatal("probe never noticed the vanished folder")
	}
	if !w.Suspended() {
		t.Fatal("watcher must be suspended after the probe fails")
	}
}

func TestStopCancelsPendingSettlement(t *testing.T) {
	dir := t.TempDir()
	w, c := startWatcher(t, config.WatchedFolder{
		Path:    dir,
		Enabled: true,
		Kind:    config.FolderLocal,
	}, Tuning{Debounce: time.Hour, SettleChecks: 2, ProbeInterval: time.Hour})

	testsupport.WriteFile(t, dir, "queued.txt", "content")
	waitFor(t, time.Second, func() bool { return w.settler.pendingCount() == 1 })

	w.Stop()
	if got := w.settler.pendingCount(); got != 0 {
		t.Fatalf("pending timers after Stop = %d", got)
	}
	if got := c.paths(); len(got) != 0 {
		t.Fatalf("no emissions expected after Stop, got %v", got)
	}
}
