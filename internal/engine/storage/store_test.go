package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return NewStore(kv)
}

func lead(name, city string) model.Lead {
	return model.Lead{
		Business:    model.Business{Name: name, Category: "dentist", Source: "openstreetmap"},
		ScrapedCity: city,
		ScrapedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMissingSlotsReadAsZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	leads, err := s.LoadLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	rot, err := s.LoadRotation(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RotationState{}, rot)

	history, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSlotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := []model.Lead{lead("Smile Dental", "Austin"), lead("Cafe Uno", "Austin")}
	require.NoError(t, s.SaveLeads(ctx, want))

	got, err := s.LoadLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	rot := model.RotationState{CategoryIndex: 3, LocationIndex: 7, TotalRuns: 42}
	require.NoError(t, s.SaveRotation(ctx, rot))
	gotRot, err := s.LoadRotation(ctx)
	require.NoError(t, err)
	assert.Equal(t, rot, gotRot)
}

func TestSlotsAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRotation(ctx, model.RotationState{TotalRuns: 5}))

	leads, err := s.LoadLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestSaveReplacesWholeSlot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveLeads(ctx, []model.Lead{lead("A", "Austin"), lead("B", "Austin")}))
	require.NoError(t, s.SaveLeads(ctx, []model.Lead{lead("C", "Denver")}))

	got, err := s.LoadLeads(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C", got[0].Name)
}

func TestMergeLeadsFirstWriteWins(t *testing.T) {
	existing := []model.Lead{lead("Smile Dental", "Austin")}
	existing[0].Website = "https://original.example"

	incoming := []model.Lead{lead("Smile Dental", "Austin")}
	incoming[0].Website = "https://changed.example"

	merged, added := MergeLeads(existing, incoming)
	assert.Zero(t, added)
	require.Len(t, merged, 1)
	assert.Equal(t, "https://original.example", merged[0].Website)
}

func TestMergeLeadsKeyIsNamePlusCity(t *testing.T) {
	existing := []model.Lead{lead("Smile Dental", "Austin")}
	incoming := []model.Lead{
		lead("SMILE DENTAL", "austin"), // same key, case-insensitive
		lead("Smile Dental", "Denver"), // same name, different market
	}

	merged, added := MergeLeads(existing, incoming)
	assert.Equal(t, 1, added)
	assert.Len(t, merged, 2)
}

func TestMergeLeadsDedupsWithinIncoming(t *testing.T) {
	incoming := []model.Lead{lead("A", "Austin"), lead("a", "Austin"), lead("B", "Austin")}

	merged, added := MergeLeads(nil, incoming)
	assert.Equal(t, 2, added)
	assert.Len(t, merged, 2)
}

func TestAppendHistoryMostRecentFirst(t *testing.T) {
	h := AppendHistory(nil, model.RunHistoryEntry{Category: "first"})
	h = AppendHistory(h, model.RunHistoryEntry{Category: "second"})

	require.Len(t, h, 2)
	assert.Equal(t, "second", h[0].Category)
	assert.Equal(t, "first", h[1].Category)
}

func TestAppendHistoryBounded(t *testing.T) {
	var h []model.RunHistoryEntry
	for i := 0; i < model.MaxHistory+10; i++ {
		h = AppendHistory(h, model.RunHistoryEntry{Category: fmt.Sprintf("run-%d", i)})
	}

	require.Len(t, h, model.MaxHistory)
	assert.Equal(t, fmt.Sprintf("run-%d", model.MaxHistory+9), h[0].Category)
	assert.Equal(t, "run-10", h[len(h)-1].Category)
}
