// Package storage persists the pipeline's three durable slots (leads,
// rotation and history) as whole JSON documents behind a small KV
// interface. Each slot is consistent on its own; there is no cross-slot
// transaction, and concurrent writers are last-writer-wins.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

// Slot names. Independently addressable; a slot that was never written
// reads as its zero value.
const (
	SlotLeads    = "leads"
	SlotRotation = "rotation"
	SlotHistory  = "history"
)

// KV is the minimal slot backend contract. Get reports found=false for a
// slot that was never written.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Store reads and replaces the three slots as whole documents.
type Store struct {
	kv KV
}

// NewStore wraps a KV backend.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) LoadLeads(ctx context.Context) ([]model.Lead, error) {
	var leads []model.Lead
	if err := s.loadSlot(ctx, SlotLeads, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *Store) LoadRotation(ctx context.Context) (model.RotationState, error) {
	var state model.RotationState
	if err := s.loadSlot(ctx, SlotRotation, &state); err != nil {
		return model.RotationState{}, err
	}
	return state, nil
}

func (s *Store) LoadHistory(ctx context.Context) ([]model.RunHistoryEntry, error) {
	var history []model.RunHistoryEntry
	if err := s.loadSlot(ctx, SlotHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Store) SaveLeads(ctx context.Context, leads []model.Lead) error {
	return s.saveSlot(ctx, SlotLeads, leads)
}

func (s *Store) SaveRotation(ctx context.Context, state model.RotationState) error {
	return s.saveSlot(ctx, SlotRotation, state)
}

func (s *Store) SaveHistory(ctx context.Context, history []model.RunHistoryEntry) error {
	return s.saveSlot(ctx, SlotHistory, history)
}

func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) loadSlot(ctx context.Context, slot string, out any) error {
	raw, found, err := s.kv.Get(ctx, slot)
	if err != nil {
		return fmt.Errorf("reading slot %s: %w", slot, err)
	}
	if !found {
		return nil // never written: zero value
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding slot %s: %w", slot, err)
	}
	return nil
}

func (s *Store) saveSlot(ctx context.Context, slot string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding slot %s: %w", slot, err)
	}
	if err := s.kv.Set(ctx, slot, raw); err != nil {
		return fmt.Errorf("writing slot %s: %w", slot, err)
	}
	return nil
}

// MergeLeads appends incoming leads whose cross-run key is not already
// present. First write wins permanently: an existing lead is never
// overwritten or merged with new data. Returns the merged collection and
// how many were added.
func MergeLeads(existing, incoming []model.Lead) ([]model.Lead, int) {
	seen := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		seen[l.Key()] = struct{}{}
	}

	merged := existing
	added := 0
	for _, l := range incoming {
		key := l.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, l)
		added++
	}
	return merged, added
}

// AppendHistory prepends an entry (most recent first) and truncates to the
// bound, dropping the oldest.
func AppendHistory(history []model.RunHistoryEntry, entry model.RunHistoryEntry) []model.RunHistoryEntry {
	out := append([]model.RunHistoryEntry{entry}, history...)
	if len(out) > model.MaxHistory {
		out = out[:model.MaxHistory]
	}
	return out
}
