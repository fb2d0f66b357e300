package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/events"
)

// MemoryStorage implements Storage in process memory. It round-trips state
// through JSON on save and load so callers get the same copy semantics as
// the durable backends, and so state that would not survive serialization
// fails here too.
type MemoryStorage struct {
	mu      sync.RWMutex
	states  map[string][]byte
	order   []string
	logs    map[string][]events.Event
	units   map[string][]core.ArgumentUnit
	stances map[string][]core.StanceRecord
}

// NewMemoryStorage creates an empty in-memory storage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states:  make(map[string][]byte),
		logs:    make(map[string][]events.Event),
		units:   make(map[string][]core.ArgumentUnit),
		stances: make(map[string][]core.StanceRecord),
	}
}

// Initialize is a no-op for memory storage.
func (s *MemoryStorage) Initialize(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}

// SaveState stores a serialized snapshot of the state.
func (s *MemoryStorage) SaveState(ctx context.Context, state *core.DebateState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.states[state.ThreadID]; !exists {
		s.order = append(s.order, state.ThreadID)
	}
	s.states[state.ThreadID] = data

	return nil
}

// LoadState returns a fresh copy of the stored state.
func (s *MemoryStorage) LoadState(ctx context.Context, threadID string) (*core.DebateState, error) {
	s.mu.RLock()
	data, ok := s.states[threadID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}

	var state core.DebateState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("thread %s: %w: %v", threadID, ErrCorrupt, err)
	}

	return &state, nil
}

// DeleteState removes a debate and its event log.
func (s *MemoryStorage) DeleteState(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[threadID]; !ok {
		return fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}

	delete(s.states, threadID)
	delete(s.logs, threadID)
	delete(s.units, threadID)
	delete(s.stances, threadID)
	for i, id := range s.order {
		if id == threadID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return nil
}

// ListStates returns debate summaries, newest first.
func (s *MemoryStorage) ListStates(ctx context.Context, limit, offset int) ([]*core.DebateSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*core.DebateSummary
	for _, id := range s.order {
		var state core.DebateState
		if err := json.Unmarshal(s.states[id], &state); err != nil {
			return nil, fmt.Errorf("thread %s: %w: %v", id, ErrCorrupt, err)
		}
		all = append(all, &core.DebateSummary{
			ThreadID:         state.ThreadID,
			Topic:            state.Topic,
			Phase:            state.Phase,
			DebateMode:       state.DebateMode,
			Rounds:           state.DebateRoundNum,
			PanelSize:        len(state.Panel),
			ConsensusReached: state.ConsensusReached,
			CreatedAt:        state.CreatedAt,
			UpdatedAt:        state.UpdatedAt,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	return all, nil
}

// AppendEvents appends events to a thread's in-memory log.
func (s *MemoryStorage) AppendEvents(ctx context.Context, threadID string, evs []events.Event) error {
	if len(evs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[threadID] = append(s.logs[threadID], evs...)
	return nil
}

// ListEvents returns a thread's events with seq greater than afterSeq.
func (s *MemoryStorage) ListEvents(ctx context.Context, threadID string, afterSeq int64) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []events.Event
	for _, ev := range s.logs[threadID] {
		if ev.Seq > afterSeq {
			out = append(out, ev)
		}
	}
	return out, nil
}

// SaveArgumentUnits stores extracted argument units for a thread.
func (s *MemoryStorage) SaveArgumentUnits(ctx context.Context, threadID string, units []core.ArgumentUnit) error {
	if len(units) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[threadID] = append(s.units[threadID], units...)
	return nil
}

// ListArgumentUnits returns all argument units for a thread.
func (s *MemoryStorage) ListArgumentUnits(ctx context.Context, threadID string) ([]core.ArgumentUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.ArgumentUnit(nil), s.units[threadID]...), nil
}

// SaveStances stores one round's extracted stances.
func (s *MemoryStorage) SaveStances(ctx context.Context, threadID string, round int, stances map[string]*core.Stance) error {
	if len(stances) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(stances))
	for name := range stances {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stance := stances[name]
		if stance == nil {
			continue
		}
		s.stances[threadID] = append(s.stances[threadID], core.StanceRecord{
			Round:    round,
			Panelist: name,
			Stance:   *stance,
		})
	}
	return nil
}

// ListStances returns all stored stances for a thread.
func (s *MemoryStorage) ListStances(ctx context.Context, threadID string) ([]core.StanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.StanceRecord(nil), s.stances[threadID]...), nil
}
