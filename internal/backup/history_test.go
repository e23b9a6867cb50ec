package backup

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testRecord(id string) Record {
	return Record{
		ID:         id,
		Timestamp:  "20250101_120000",
		Status:     StatusRunning,
		LocalPath:  "/srv/minecraft",
		RemotePath: "r2:minecraft-backups/20250101_120000",
		StartTime:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestHistory(t *testing.T) (*History, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "backup_history.json")
	return NewHistory(path, zap.NewNop()), path
}

func TestHistoryAppendNewestFirst(t *testing.T) {
	h, _ := newTestHistory(t)

	h.Append(testRecord("backup_a"))
	h.Append(testRecord("backup_b"))
	h.Append(testRecord("backup_c"))

	recs := h.List(0)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, want := range []string{"backup_c", "backup_b", "backup_a"} {
		if recs[i].ID != want {
			t.Errorf("record %d id = %q, want %q", i, recs[i].ID, want)
		}
	}
}

func TestHistoryUpdateInPlace(t *testing.T) {
	h, _ := newTestHistory(t)

	h.Append(testRecord("backup_a"))
	h.Append(testRecord("backup_b"))

	rec := testRecord("backup_a")
	rec.Status = StatusSuccess
	rec.FilesTransferred = 12

	if !h.Update(rec) {
		t.Fatal("expected update to find backup_a")
	}

	got, err := h.Get("backup_a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusSuccess || got.FilesTransferred != 12 {
		t.Errorf("record not updated: %+v", got)
	}

	// position and total count stay the same
	recs := h.List(0)
	if len(recs) != 2 || recs[1].ID != "backup_a" {
		t.Errorf("ledger reordered: %+v", recs)
	}
}

func TestHistoryUpdateUnknownID(t *testing.T) {
	h, _ := newTestHistory(t)
	h.Append(testRecord("backup_a"))

	if h.Update(testRecord("backup_ghost")) {
		t.Error("expected update of unknown id to report false")
	}
	if h.Len() != 1 {
		t.Errorf("ledger length changed to %d", h.Len())
	}
}

func TestHistoryListLimit(t *testing.T) {
	h, _ := newTestHistory(t)

	for i := 0; i < 25; i++ {
		rec := testRecord("backup_" + string(rune('a'+i)))
		h.Append(rec)
	}

	if got := len(h.List(0)); got != DefaultHistoryLimit {
		t.Errorf("default limit returned %d records, want %d", got, DefaultHistoryLimit)
	}
	if got := len(h.List(5)); got != 5 {
		t.Errorf("limit 5 returned %d records", got)
	}
	if got := len(h.List(100)); got != 25 {
		t.Errorf("oversized limit returned %d records, want 25", got)
	}
}

func TestHistoryGetNotFound(t *testing.T) {
	h, _ := newTestHistory(t)
	h.Append(testRecord("backup_a"))

	if _, err := h.Get("backup_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryPersistsAsJSONArray(t *testing.T) {
	h, path := newTestHistory(t)
	h.Append(testRecord("backup_a"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read history file: %v", err)
	}

	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		t.Fatalf("history file is not a JSON array: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "backup_a" {
		t.Errorf("unexpected file contents: %+v", recs)
	}
}

func TestHistoryReload(t *testing.T) {
	h, path := newTestHistory(t)

	rec := testRecord("backup_a")
	rec.Status = StatusSuccess
	end := rec.StartTime.Add(42 * time.Second)
	rec.EndTime = &end
	rec.BytesTransferred = 3670016
	h.Append(rec)

	reloaded := NewHistory(path, zap.NewNop())

	got, err := reloaded.Get("backup_a")
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if got.Status != StatusSuccess || got.BytesTransferred != 3670016 {
		t.Errorf("reloaded record mismatch: %+v", got)
	}
	if got.EndTime == nil || !got.EndTime.Equal(end) {
		t.Errorf("end time not preserved: %v", got.EndTime)
	}
}

func TestHistoryMissingFileStartsEmpty(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())

	if h.Len() != 0 {
		t.Errorf("expected empty history, got %d records", h.Len())
	}
}

func TestHistoryCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup_history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path, zap.NewNop())
	if h.Len() != 0 {
		t.Errorf("expected empty history, got %d records", h.Len())
	}

	// the ledger stays usable
	h.Append(testRecord("backup_a"))
	if h.Len() != 1 {
		t.Errorf("append after corrupt load failed, len = %d", h.Len())
	}
}
