package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSyncer struct {
	mu      sync.Mutex
	results []SyncResult
	calls   []Invocation
	block   chan struct{}
}

func (f *fakeSyncer) Run(ctx context.Context, inv Invocation) SyncResult {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	idx := len(f.calls) - 1
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}

	if idx < len(f.results) {
		return f.results[idx]
	}
	return SyncResult{}
}

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type notification struct {
	severity Severity
	title    string
	body     string
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []notification
}

func (f *fakeNotifier) Notify(_ context.Context, severity Severity, title, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, notification{severity, title, body})
}

func (f *fakeNotifier) all() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification(nil), f.notes...)
}

func stepClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func newTestRunner(t *testing.T, syncer Syncer, notifier Notifier) (*Runner, *History, string) {
	t.Helper()

	dir := t.TempDir()
	hist := NewHistory(filepath.Join(dir, "history.json"), zap.NewNop())
	settings := func() Settings {
		return Settings{DataPath: dir, Remote: "r2", Bucket: "minecraft-backups"}
	}

	return NewRunner(hist, syncer, notifier, settings, zap.NewNop()), hist, dir
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewRecord(t *testing.T) {
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	st := Settings{DataPath: "/srv/minecraft", Remote: "r2", Bucket: "minecraft-backups"}

	rec := NewRecord(now, st, nil)

	if rec.ID != "backup_20250102_150405" {
		t.Errorf("id = %q", rec.ID)
	}
	if rec.RemotePath != "r2:minecraft-backups/20250102_150405" {
		t.Errorf("remote path = %q", rec.RemotePath)
	}
	if rec.Status != StatusRunning || rec.Terminal() {
		t.Errorf("fresh record not running: %+v", rec)
	}
	if rec.LocalPath != "/srv/minecraft" {
		t.Errorf("local path = %q", rec.LocalPath)
	}
}

func TestRunnerSuccess(t *testing.T) {
	syncer := &fakeSyncer{results: []SyncResult{
		{Output: "Transferred: 42 / 42, 100%, 3.5 MB", ExitCode: 0},
	}}
	notifier := &fakeNotifier{}
	r, hist, _ := newTestRunner(t, syncer, notifier)

	start := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	r.now = stepClock(start, start.Add(3*time.Second))

	rec, err := r.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if rec.Status != StatusSuccess {
		t.Errorf("status = %q, error = %q", rec.Status, rec.Error)
	}
	if rec.FilesTransferred != 42 || rec.BytesTransferred != 3670016 {
		t.Errorf("stats = %d files, %d bytes", rec.FilesTransferred, rec.BytesTransferred)
	}
	if rec.Duration != 3.0 {
		t.Errorf("duration = %v", rec.Duration)
	}
	if rec.EndTime == nil {
		t.Error("end time not set")
	}

	// one full-tree sync with the transient-file excludes
	if syncer.callCount() != 1 {
		t.Fatalf("expected 1 sub-transfer, got %d", syncer.callCount())
	}
	if syncer.calls[0].Mode != ModeSync || len(syncer.calls[0].Excludes) == 0 {
		t.Errorf("unexpected invocation: %+v", syncer.calls[0])
	}

	// one ledger entry, updated in place
	if hist.Len() != 1 {
		t.Errorf("ledger has %d records", hist.Len())
	}
	stored, err := hist.Get(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusSuccess {
		t.Errorf("stored status = %q", stored.Status)
	}

	notes := notifier.all()
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notes))
	}
	if notes[0].severity != SeverityInfo || notes[0].title != "Backup started" {
		t.Errorf("unexpected start notification: %+v", notes[0])
	}
	if notes[1].severity != SeveritySuccess || notes[1].title != "Backup completed" {
		t.Errorf("unexpected terminal notification: %+v", notes[1])
	}
	if !strings.Contains(notes[1].body, "3.50 MB") {
		t.Errorf("terminal body missing formatted size: %q", notes[1].body)
	}
}

func TestRunnerAsyncRunningState(t *testing.T) {
	syncer := &fakeSyncer{block: make(chan struct{})}
	notifier := &fakeNotifier{}
	r, hist, _ := newTestRunner(t, syncer, notifier)

	if err := r.StartAsync(nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	// the running record is visible in the ledger while the job executes
	waitFor(t, func() bool { return hist.Len() == 1 })
	recs := hist.List(1)
	if recs[0].Status != StatusRunning {
		t.Errorf("mid-job status = %q", recs[0].Status)
	}
	if recs[0].EndTime != nil {
		t.Error("mid-job record has an end time")
	}
	if !r.Running() {
		t.Error("runner does not report running")
	}

	close(syncer.block)

	waitFor(t, func() bool {
		rec, err := hist.Get(recs[0].ID)
		return err == nil && rec.Terminal()
	})
	waitFor(t, func() bool { return !r.Running() })
}

func TestRunnerRejectsConcurrentStart(t *testing.T) {
	syncer := &fakeSyncer{block: make(chan struct{})}
	r, hist, _ := newTestRunner(t, syncer, &fakeNotifier{})

	if err := r.StartAsync(nil); err != nil {
		t.Fatalf("first start: %v", err)
	}
	waitFor(t, func() bool { return hist.Len() == 1 })

	if err := r.StartAsync(nil); !errors.Is(err, ErrBackupInProgress) {
		t.Errorf("second start err = %v, want ErrBackupInProgress", err)
	}
	if _, err := r.Execute(context.Background(), nil); !errors.Is(err, ErrBackupInProgress) {
		t.Errorf("concurrent execute err = %v, want ErrBackupInProgress", err)
	}

	close(syncer.block)
	waitFor(t, func() bool { return !r.Running() })

	// the guard resets once the job finishes
	if err := r.StartAsync(nil); err != nil {
		t.Errorf("start after completion: %v", err)
	}
	waitFor(t, func() bool { return !r.Running() })
}

func TestRunnerSelectivePaths(t *testing.T) {
	syncer := &fakeSyncer{}
	r, _, dir := newTestRunner(t, syncer, &fakeNotifier{})

	if err := os.MkdirAll(filepath.Join(dir, "world"), 0755); err != nil {
		t.Fatal(err)
	}

	rec, err := r.Execute(context.Background(), []string{"world", "missing_dir"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if syncer.callCount() != 1 {
		t.Fatalf("expected 1 sub-transfer, got %d", syncer.callCount())
	}
	if syncer.calls[0].Mode != ModeCopy || !strings.HasSuffix(syncer.calls[0].Dest, "/world") {
		t.Errorf("unexpected invocation: %+v", syncer.calls[0])
	}
	if rec.Status != StatusSuccess {
		t.Errorf("status = %q", rec.Status)
	}
	if len(rec.SelectedPaths) != 2 {
		t.Errorf("selected paths not recorded: %+v", rec.SelectedPaths)
	}
}

func TestRunnerSelectiveAllMissing(t *testing.T) {
	syncer := &fakeSyncer{}
	r, _, _ := newTestRunner(t, syncer, &fakeNotifier{})

	rec, err := r.Execute(context.Background(), []string{"ghost"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if syncer.callCount() != 0 {
		t.Errorf("expected no sub-transfers, got %d", syncer.callCount())
	}
	if rec.Status != StatusSuccess {
		t.Errorf("status = %q", rec.Status)
	}
}

func TestRunnerSubTransferFailureContinues(t *testing.T) {
	syncer := &fakeSyncer{results: []SyncResult{
		{ExitCode: 2, ErrOutput: "boom"},
		{ExitCode: 0, Output: "Transferred: 1 / 1, 1 KB"},
	}}
	notifier := &fakeNotifier{}
	r, _, dir := newTestRunner(t, syncer, notifier)

	for _, sub := range []string{"world", "plugins"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}

	rec, err := r.Execute(context.Background(), []string{"world", "plugins"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// the second sub-transfer still ran
	if syncer.callCount() != 2 {
		t.Errorf("expected 2 sub-transfers, got %d", syncer.callCount())
	}

	if rec.Status != StatusError {
		t.Errorf("status = %q", rec.Status)
	}
	if !strings.Contains(rec.Error, "boom") {
		t.Errorf("error = %q", rec.Error)
	}
	if rec.FilesTransferred != 1 || rec.BytesTransferred != 1024 {
		t.Errorf("stats = %d files, %d bytes", rec.FilesTransferred, rec.BytesTransferred)
	}

	notes := notifier.all()
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notes))
	}
	if notes[1].severity != SeverityError || notes[1].title != "Backup failed" {
		t.Errorf("unexpected terminal notification: %+v", notes[1])
	}
	if !strings.Contains(notes[1].body, "boom") {
		t.Errorf("terminal body missing error preview: %q", notes[1].body)
	}
}

func TestRunnerToolFailureAborts(t *testing.T) {
	syncer := &fakeSyncer{results: []SyncResult{
		{Err: errors.New("failed to run rclone: executable file not found")},
	}}
	notifier := &fakeNotifier{}
	r, hist, dir := newTestRunner(t, syncer, notifier)

	for _, sub := range []string{"world", "plugins"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}

	rec, err := r.Execute(context.Background(), []string{"world", "plugins"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// remaining sub-transfers are skipped
	if syncer.callCount() != 1 {
		t.Errorf("expected 1 sub-transfer, got %d", syncer.callCount())
	}
	if rec.Status != StatusError {
		t.Errorf("status = %q", rec.Status)
	}
	if !strings.Contains(rec.Error, "executable file not found") {
		t.Errorf("error = %q", rec.Error)
	}

	stored, err := hist.Get(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusError {
		t.Errorf("stored status = %q", stored.Status)
	}

	notes := notifier.all()
	if len(notes) != 2 || notes[1].severity != SeverityError {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
}

func TestRunnerEmptyErrorPreview(t *testing.T) {
	syncer := &fakeSyncer{results: []SyncResult{{ExitCode: 1}}}
	notifier := &fakeNotifier{}
	r, _, _ := newTestRunner(t, syncer, notifier)

	rec, err := r.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if rec.Status != StatusError {
		t.Fatalf("status = %q", rec.Status)
	}

	notes := notifier.all()
	if !strings.Contains(notes[1].body, "unknown error") {
		t.Errorf("body = %q", notes[1].body)
	}
}

func TestRunnerErrorPreviewTruncated(t *testing.T) {
	long := strings.Repeat("x", errorPreviewLimit+100) + "TAIL"
	syncer := &fakeSyncer{results: []SyncResult{{ExitCode: 1, ErrOutput: long}}}
	notifier := &fakeNotifier{}
	r, _, _ := newTestRunner(t, syncer, notifier)

	rec, err := r.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	// the record keeps the full error, the notification only a preview
	if len(rec.Error) != len(long) {
		t.Errorf("record error truncated to %d bytes", len(rec.Error))
	}

	body := notifier.all()[1].body
	if strings.Contains(body, "TAIL") {
		t.Errorf("preview not truncated: %q", body)
	}
	if !strings.Contains(body, strings.Repeat("x", errorPreviewLimit)) {
		t.Errorf("preview shorter than limit: %q", body)
	}
}

// ledgerProbe records what the ledger said at each notification.
type ledgerProbe struct {
	hist     *History
	mu       sync.Mutex
	statuses []Status
}

func (p *ledgerProbe) Notify(_ context.Context, _ Severity, _, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	recs := p.hist.List(1)
	if len(recs) == 0 {
		p.statuses = append(p.statuses, Status("missing"))
		return
	}
	p.statuses = append(p.statuses, recs[0].Status)
}

func TestRunnerPersistsBeforeNotifying(t *testing.T) {
	syncer := &fakeSyncer{}
	probe := &ledgerProbe{}
	r, hist, _ := newTestRunner(t, syncer, probe)
	probe.hist = hist

	if _, err := r.Execute(context.Background(), nil); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(probe.statuses) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(probe.statuses))
	}
	if probe.statuses[0] != StatusRunning {
		t.Errorf("ledger at start notification = %q, want running", probe.statuses[0])
	}
	if probe.statuses[1] != StatusSuccess {
		t.Errorf("ledger at terminal notification = %q, want success", probe.statuses[1])
	}
}

func TestRunnerSurvivesUnreachableWebhook(t *testing.T) {
	syncer := &fakeSyncer{}
	notifier := NewWebhookNotifier("http://127.0.0.1:1/hook", zap.NewNop())
	r, hist, _ := newTestRunner(t, syncer, notifier)

	rec, err := r.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if rec.Status != StatusSuccess {
		t.Errorf("status = %q", rec.Status)
	}
	stored, err := hist.Get(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusSuccess {
		t.Errorf("stored status = %q", stored.Status)
	}
}
