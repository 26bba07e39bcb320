package status

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps statuses in memory.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]map[string]Record // runID -> uid -> record
	seq    map[string]int               // runID -> last sequence
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]map[string]Record),
		seq:  make(map[string]int),
	}
}

// Set implements Store.
func (m *MemoryStore) Set(runID, uid string, st Status) error {
	if !st.Valid() {
		return ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	run := m.runs[runID]
	if run == nil {
		run = make(map[string]Record)
		m.runs[runID] = run
	}

	m.seq[runID]++
	run[uid] = Record{
		RunID:     runID,
		UID:       uid,
		Status:    st,
		Sequence:  m.seq[runID],
		Timestamp: time.Now().UTC(),
	}
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(runID, uid string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrStoreClosed
	}

	rec, ok := m.runs[runID][uid]
	if !ok {
		return "", ErrNotFound
	}
	return rec.Status, nil
}

// List implements Store.
func (m *MemoryStore) List(runID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	run := m.runs[runID]
	if len(run) == 0 {
		return nil, nil
	}

	records := make([]Record, 0, len(run))
	for _, rec := range run {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Sequence < records[j].Sequence
	})
	return records, nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.runs, runID)
	delete(m.seq, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	m.seq = nil
	return nil
}
