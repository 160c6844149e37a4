package model

import (
	"sync"

	"github.com/Laisky/errors/v2"
)

var ErrRecordNotFound = errors.New("evaluation record not found")

// RunHistory keeps the most recent evaluation records up to a fixed capacity. Appending beyond
// capacity evicts the oldest record.
type RunHistory struct {
	mu      sync.RWMutex
	max     int
	records []*EvaluationRecord
}

func NewRunHistory(max int) *RunHistory {
	if max < 1 {
		max = 1
	}
	return &RunHistory{max: max}
}

// IndexedRecord pairs a record with its current insertion-order index.
type IndexedRecord struct {
	Index  int
	Record *EvaluationRecord
}

// Append adds rec and returns the index it landed at and how many old records were evicted.
func (h *RunHistory) Append(rec *EvaluationRecord) (index, evicted int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	for len(h.records) > h.max {
		h.records[0] = nil
		h.records = h.records[1:]
		evicted++
	}
	return len(h.records) - 1, evicted
}

func (h *RunHistory) Clear() {
	h.mu.Lock()
	h.records = nil
	h.mu.Unlock()
}

// Remove deletes the record at index, shifting later records down.
func (h *RunHistory) Remove(index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.records) {
		return errors.Wrapf(ErrRecordNotFound, "index %d", index)
	}
	h.records = append(h.records[:index], h.records[index+1:]...)
	return nil
}

func (h *RunHistory) Get(index int) (*EvaluationRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if index < 0 || index >= len(h.records) {
		return nil, errors.Wrapf(ErrRecordNotFound, "index %d", index)
	}
	return h.records[index], nil
}

// List returns the records newest first.
func (h *RunHistory) List() []IndexedRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]IndexedRecord, 0, len(h.records))
	for i := len(h.records) - 1; i >= 0; i-- {
		out = append(out, IndexedRecord{Index: i, Record: h.records[i]})
	}
	return out
}

func (h *RunHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

func (h *RunHistory) Max() int { return h.max }
