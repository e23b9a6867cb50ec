package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/TanZiPeng/mcserver/internal/utils"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("backup not found")

const DefaultHistoryLimit = 20

// History is the durable ledger of backup jobs, newest first. The in-memory
// slice is authoritative; the JSON file is rewritten after every mutation
// and persistence failures are logged, never raised.
type History struct {
	mu      sync.Mutex
	path    string
	records []Record
	log     *zap.Logger
}

// NewHistory loads the ledger at path. A missing or corrupt file starts an
// empty history rather than failing.
func NewHistory(path string, log *zap.Logger) *History {
	h := &History{path: path, log: log}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("failed to read backup history, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return h
	}

	if err := json.Unmarshal(data, &h.records); err != nil {
		log.Warn("backup history is corrupt, starting empty",
			zap.String("path", path), zap.Error(err))
		h.records = nil
	}

	return h
}

// Append inserts the record at the head of the ledger and persists.
func (h *History) Append(rec Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append([]Record{rec}, h.records...)
	h.persistLocked()
}

// Update replaces the record with the same id in place and persists. It
// reports whether the id was found; an unknown id leaves the ledger
// untouched.
func (h *History) Update(rec Record) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.records {
		if h.records[i].ID == rec.ID {
			h.records[i] = rec
			h.persistLocked()
			return true
		}
	}

	return false
}

// List returns up to limit records, newest first. A non-positive limit uses
// DefaultHistoryLimit.
func (h *History) List(limit int) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > len(h.records) {
		limit = len(h.records)
	}

	out := make([]Record, limit)
	copy(out, h.records[:limit])
	return out
}

// Get looks up a record by id.
func (h *History) Get(id string) (Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, rec := range h.records {
		if rec.ID == id {
			return rec, nil
		}
	}

	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Len reports the total number of records in the ledger.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func (h *History) persistLocked() {
	data, err := json.MarshalIndent(h.records, "", "  ")
	if err != nil {
		h.log.Warn("failed to encode backup history", zap.Error(err))
		return
	}

	if err := utils.AtomicWriteFile(h.path, data, 0644); err != nil {
		h.log.Warn("failed to persist backup history",
			zap.String("path", h.path), zap.Error(err))
	}
}
