package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/config"
	"curator/internal/engine"
	"curator/internal/faults"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/testsupport"
)

type fixture struct {
	cfg      *config.Config
	store    *ledger.Store
	notifier *testsupport.RecordingNotifier
	engine   *engine.Engine
	inbox    string
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	inbox := t.TempDir()
	opts = append(opts, testsupport.WithWatchedFolder(inbox, false))
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenLedger(t, cfg)
	notifier := &testsupport.RecordingNotifier{}

	return &fixture{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		engine:   engine.New(cfg, store, notifier, logging.NewNop()),
		inbox:    inbox,
	}
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

func TestOrganizeNowIsIdempotent(t *testing.T) {
	fx := newFixture(t, testsupport.WithRoutes(map[string][]string{
		"Documents": {"pdf", "txt"},
		"Images":    {"jpg"},
	}))

	testsupport.WriteFile(t, fx.inbox, "report.pdf", "pdf body")
	testsupport.WriteFile(t, fx.inbox, "photo.jpg", "jpg body")
	testsupport.WriteFile(t, fx.inbox, "scratch.tmp", "ignored")
	testsupport.WriteFile(t, fx.inbox, ".hidden", "ignored")

	ctx := context.Background()
	first, err := fx.engine.OrganizeNow(ctx, fx.inbox, false)
	if err != nil {
		t.Fatalf("OrganizeNow failed: %v", err)
	}
	if first.Processed != 2 || first.Errors != 0 {
		t.Fatalf("first pass processed=%d errors=%d, want 2/0", first.Processed, first.Errors)
	}
	if _, err := os.Stat(filepath.Join(fx.cfg.Paths.OrganizeRoot, "Documents", "report.pdf")); err != nil {
		t.Fatalf("report.pdf not organized: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fx.inbox, "scratch.tmp")); err != nil {
		t.Fatal("temporary artifact must be left in place")
	}

	second, err := fx.engine.OrganizeNow(ctx, fx.inbox, false)
	if err != nil {
		t.Fatalf("second OrganizeNow failed: %v", err)
	}
	if second.Processed != 0 {
		t.Fatalf("second pass must be a no-op, processed %d", second.Processed)
	}
	if got := fx.notifier.ByEvent("batch_completed"); len(got) != 2 {
		t.Fatalf("expected two batch notifications, got %d", len(got))
	}
}

func TestOrganizeNowEmptyPathBatchesWatchedFolders(t *testing.T) {
	second := t.TempDir()
	fx := newFixture(t,
		testsupport.WithRoutes(map[string][]string{
			"Documents": {"txt"},
			"Images":    {"jpg"},
		}),
		testsupport.WithWatchedFolder(second, false),
	)

	testsupport.WriteFile(t, fx.inbox, "notes.txt", "first folder")
	testsupport.WriteFile(t, second, "photo.jpg", "second folder")
	// A stray file next to the daemon's working directory must never be
	// touched by a folderless batch.
	stray := testsupport.WriteFile(t, t.TempDir(), "stray.txt", "unwatched")

	result, err := fx.engine.OrganizeNow(context.Background(), "", false)
	if err != nil {
		t.Fatalf("OrganizeNow without folder failed: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("processed = %d, want 2 (one per watched folder)", result.Processed)
	}
	if _, err := os.Stat(filepath.Join(fx.cfg.Paths.OrganizeRoot, "Documents", "notes.txt")); err != nil {
		t.Fatalf("first watched folder not organized: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fx.cfg.Paths.OrganizeRoot, "Images", "photo.jpg")); err != nil {
		t.Fatalf("second watched folder not organized: %v", err)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Fatalf("unwatched file must stay put: %v", err)
	}
}

func TestOrganizeNowEmptyPathWithoutWatchedFolders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	eng := engine.New(cfg, store, &testsupport.RecordingNotifier{}, logging.NewNop())

	_, err := eng.OrganizeNow(context.Background(), "", false)
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error with no watched folders, got %v", err)
	}
}

func TestOrganizeNowAllFoldersSkipsUnreachable(t *testing.T) {
	base := t.TempDir()
	missing := filepath.Join(base, "gone")
	fx := newFixture(t,
		testsupport.WithRoutes(map[string][]string{
			"Documents": {"txt"},
		}),
		testsupport.WithWatchedFolder(missing, false),
	)
	testsupport.WriteFile(t, fx.inbox, "notes.txt", "content")

	result, err := fx.engine.OrganizeNow(context.Background(), "", false)
	if err != nil {
		t.Fatalf("batch must survive one unreachable folder: %v", err)
	}
	if result.Processed != 1 || result.Errors != 1 {
		t.Fatalf("processed=%d errors=%d, want 1/1", result.Processed, result.Errors)
	}
}

func TestOrganizeNowDryRunTouchesNothing(t *testing.T) {
	fx := newFixture(t, testsupport.WithRoutes(map[string][]string{
		"Documents": {"txt"},
	}))
	src := testsupport.WriteFile(t, fx.inbox, "notes.txt", "content")

	result, err := fx.engine.OrganizeNow(context.Background(), fx.inbox, true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if len(result.Planned) != 1 {
		t.Fatalf("expected one planned move, got %d", len(result.Planned))
	}
	if result.Planned[0].Category != "Documents" {
		t.Fatalf("planned category = %q", result.Planned[0].Category)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("dry run must not move files: %v", err)
	}
	if got := fx.notifier.ByEvent("batch_completed"); len(got) != 0 {
		t.Fatal("dry run must not send batch notifications")
	}
}

func TestOrganizeNowMissingFolder(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.engine.OrganizeNow(context.Background(), filepath.Join(fx.inbox, "absent"), false)
	if err == nil {
		t.Fatal("expected error for missing folder")
	}
	if !errors.Is(err, faults.ErrRead) {
		t.Fatalf("unexpected error class: %v", err)
	}
}

func TestUndoRestoresFile(t *testing.T) {
	fx := newFixture(t, testsupport.WithRoutes(map[string][]string{
		"Documents": {"txt"},
	}))
	src := testsupport.WriteFile(t, fx.inbox, "notes.txt", "original content")

	ctx := context.Background()
	if _, err := fx.engine.OrganizeNow(ctx, fx.inbox, false); err != nil {
		t.Fatalf("OrganizeNow failed: %v", err)
	}
	moves, err := fx.store.RecentMoves(ctx, 1)
	if err != nil || len(moves) != 1 {
		t.Fatalf("expected one move record, got %d (err %v)", len(moves), err)
	}

	undone, err := fx.engine.Undo(ctx, moves[0].ID)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if undone.DestinationPath != src {
		t.Fatalf("restored to %q, want %q", undone.DestinationPath, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("file not restored: %v", err)
	}
	if string(data) != "original content" {
		t.Fatalf("restored content = %q", data)
	}
	if _, err := fx.store.GetMove(ctx, moves[0].ID); !errors.Is(err, ledger.ErrMoveNotFound) {
		t.Fatalf("move record must be deleted after undo, got %v", err)
	}
}

func TestUndoRefusesModifiedFile(t *testing.T) {
	fx := newFixture(t, testsupport.WithRoutes(map[string][]string{
		"Documents": {"txt"},
	}))
	testsupport.WriteFile(t, fx.inbox, "notes.txt", "original content")

	ctx := context.Background()
	if _, err := fx.engine.OrganizeNow(ctx, fx.inbox, false); err != nil {
		t.Fatalf("OrganizeNow failed: %v", err)
	}
	moves, _ := fx.store.RecentMoves(ctx, 1)
	if err := os.WriteFile(moves[0].DestinationPath, []byte("edited after move"), 0o644); err != nil {
		t.Fatalf("modify destination: %v", err)
	}

	_, err := fx.engine.Undo(ctx, moves[0].ID)
	if !errors.Is(err, faults.ErrConflict) {
		t.Fatalf("expected conflict for modified file, got %v", err)
	}
	if _, err := os.Stat(moves[0].DestinationPath); err != nil {
		t.Fatal("modified file must stay at destination")
	}
}

func TestUndoMissingDestination(t *testing.T) {
	fx := newFixture(t, testsupport.WithRoutes(map[string][]string{
		"Documents": {"txt"},
	}))
	testsupport.WriteFile(t, fx.inbox, "notes.txt", "content")

	ctx := context.Background()
	if _, err := fx.engine.OrganizeNow(ctx, fx.inbox, false); err != nil {
		t.Fatalf("OrganizeNow failed: %v", err)
	}
	moves, _ := fx.store.RecentMoves(ctx, 1)
	if err := os.Remove(moves[0].DestinationPath); err != nil {
		t.Fatalf("remove destination: %v", err)
	}

	_, err := fx.engine.Undo(ctx, moves[0].ID)
	if !errors.Is(err, faults.ErrDestinationMissing) {
		t.Fatalf("expected destination-missing for vanished destination, got %v", err)
	}
	if errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("vanished destination must not report a missing record: %v", err)
	}
}

func TestUndoUnknownRecord(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.engine.Undo(context.Background(), 9999)
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestStartWatchesAndOrganizes(t *testing.T) {
	fx := newFixture(t, testsupport.WithRoutes(map[string][]string{
		"Images": {"png"},
	}))

	ctx := context.Background()
	if err := fx.engine.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer fx.engine.Stop()

	testsupport.WriteFile(t, fx.inbox, "diagram.png", "png bytes")

	dest := filepath.Join(fx.cfg.Paths.OrganizeRoot, "Images", "diagram.png")
	if !waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(dest)
		return err == nil
	}) {
		t.Fatal("watched file never organized")
	}
	if got := fx.notifier.ByEvent("file_moved"); len(got) != 1 {
		t.Fatalf("expected one move notification, got %d", len(got))
	}
}

func TestDuplicateIsReportedButStillMoved(t *testing.T) {
	fx := newFixture(t, testsupport.WithRoutes(map[string][]string{
		"Images":    {"jpg", "png"},
		"Documents": {"pdf"},
	}))

	ctx := context.Background()
	testsupport.WriteFile(t, fx.inbox, "photo.jpg", "ten kilobytes of pixels")
	if _, err := fx.engine.OrganizeNow(ctx, fx.inbox, false); err != nil {
		t.Fatalf("OrganizeNow failed: %v", err)
	}

	moves, err := fx.engine.History(ctx, 0)
	if err != nil || len(moves) != 1 {
		t.Fatalf("expected one move, got %d (err %v)", len(moves), err)
	}
	if moves[0].Category != "Images" {
		t.Fatalf("category = %q, want Images", moves[0].Category)
	}
	wantDest := filepath.Join(fx.cfg.Paths.OrganizeRoot, "Images", "photo.jpg")
	if moves[0].DestinationPath != wantDest {
		t.Fatalf("destination = %q, want %q", moves[0].DestinationPath, wantDest)
	}

	testsupport.WriteFile(t, fx.inbox, "photo_copy.jpg", "ten kilobytes of pixels")
	if _, err := fx.engine.OrganizeNow(ctx, fx.inbox, false); err != nil {
		t.Fatalf("second OrganizeNow failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(fx.cfg.Paths.OrganizeRoot, "Images", "photo_copy.jpg")); err != nil {
		t.Fatalf("duplicate must still be moved: %v", err)
	}
	groups, err := fx.engine.Duplicates(ctx)
	if err != nil {
		t.Fatalf("Duplicates failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Paths) != 2 {
		t.Fatalf("expected one duplicate group of two paths, got %#v", groups)
	}
	if len(fx.notifier.ByEvent("duplicate")) != 1 {
		t.Fatal("expected one duplicate notification")
	}
}

func TestReloadSwapsRoutes(t *testing.T) {
	fx := newFixture(t, testsupport.WithRoutes(map[string][]string{
		"Documents": {"txt"},
	}))

	ctx := context.Background()
	testsupport.WriteFile(t, fx.inbox, "a.txt", "one")
	if _, err := fx.engine.OrganizeNow(ctx, fx.inbox, false); err != nil {
		t.Fatalf("OrganizeNow failed: %v", err)
	}

	updated := *fx.cfg
	updated.Routes = map[string][]string{"Text": {"txt"}}
	fx.engine.Reload(&updated)

	testsupport.WriteFile(t, fx.inbox, "b.txt", "two")
	if _, err := fx.engine.OrganizeNow(ctx, fx.inbox, false); err != nil {
		t.Fatalf("OrganizeNow after reload failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fx.cfg.Paths.OrganizeRoot, "Text", "b.txt")); err != nil {
		t.Fatalf("reloaded routes not applied: %v", err)
	}
}
