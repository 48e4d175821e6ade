package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/detect"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/storage"
	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

type fakeResolver struct {
	coords model.Coordinates
	err    error
	calls  int
}

func (f *fakeResolver) Resolve(ctx context.Context, place string) (model.Coordinates, error) {
	f.calls++
	return f.coords, f.err
}

type fakeLocator struct {
	businesses []model.Business
	err        error
	gotLimit   int
}

func (f *fakeLocator) Search(ctx context.Context, category string, coords model.Coordinates, radiusMeters, limit int) ([]model.Business, error) {
	f.gotLimit = limit
	return f.businesses, f.err
}

// fakeDetector marks any website containing "tracked" as having analytics
// and any containing "broken" as a fetch error.
type fakeDetector struct {
	calls int
}

func (f *fakeDetector) DetectAll(ctx context.Context, records []model.Business, onProgress detect.ProgressFunc) []model.TrackingResult {
	f.calls++
	results := make([]model.TrackingResult, len(records))
	for i, rec := range records {
		switch {
		case rec.Website == "":
			results[i] = model.TrackingResult{Error: "no website"}
		case strings.Contains(rec.Website, "broken"):
			results[i] = model.TrackingResult{Error: "fetch failed"}
		case strings.Contains(rec.Website, "tracked"):
			results[i] = model.TrackingResult{HasAnalytics: true}
		}
		if onProgress != nil {
			onProgress(i+1, len(records), rec.Name, "")
		}
	}
	return results
}

func biz(name, website string) model.Business {
	return model.Business{Name: name, Website: website, Source: "openstreetmap"}
}

type fixture struct {
	pipeline *Pipeline
	resolver *fakeResolver
	locator  *fakeLocator
	detector *fakeDetector
	store    *storage.Store
	sleeps   []time.Duration
	states   []model.RunState
}

func newFixture(t *testing.T, businesses []model.Business) *fixture {
	t.Helper()

	kv, err := storage.NewSQLiteKV(filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	f := &fixture{
		resolver: &fakeResolver{coords: model.Coordinates{Lat: 30.2672, Lng: -97.7431}},
		locator:  &fakeLocator{businesses: businesses},
		detector: &fakeDetector{},
		store:    storage.NewStore(kv),
	}
	f.pipeline = New(f.resolver, f.locator, f.detector, f.store, zap.NewNop(), Options{
		Categories:   []string{"dentist", "cafe"},
		Locations:    []string{"Austin, TX", "Denver, CO"},
		GeocodeDelay: time.Second,
		SearchDelay:  2 * time.Second,
		Sleep:        func(d time.Duration) { f.sleeps = append(f.sleeps, d) },
		OnState:      func(s model.RunState) { f.states = append(f.states, s) },
	})
	return f
}

func TestRunNextPlainMode(t *testing.T) {
	f := newFixture(t, []model.Business{biz("A", "https://a.example"), biz("B", "")})

	res, err := f.pipeline.RunNext(context.Background(), model.RunParams{RadiusMeters: 5000, Limit: 20})
	require.NoError(t, err)

	assert.Equal(t, model.StateDone, res.State)
	assert.Equal(t, "dentist", res.Category)
	assert.Equal(t, "Austin, TX", res.Location)
	assert.Equal(t, 1, res.RunNumber)
	assert.Equal(t, 2, res.BusinessesFound)
	assert.Equal(t, 2, res.LeadsAdded)
	assert.Equal(t, 2, res.TotalLeads)
	assert.Zero(t, res.Checked)

	// Without tracking enabled the detector never runs and leads carry no
	// tracking result.
	assert.Zero(t, f.detector.calls)
	leads, err := f.store.LoadLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Nil(t, leads[0].Tracking)
	assert.Equal(t, "Austin, TX", leads[0].ScrapedCity)
	assert.False(t, leads[0].ScrapedAt.IsZero())

	// Raw-set limit goes straight to the locator.
	assert.Equal(t, 20, f.locator.gotLimit)

	// Both upstream delays fired.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeps)
	assert.Equal(t, []model.RunState{model.StateResolving, model.StateLocating, model.StatePersisting}, f.states)
}

func TestRunNextCheckMode(t *testing.T) {
	f := newFixture(t, []model.Business{
		biz("Tracked", "https://tracked.example"),
		biz("Plain", "https://plain.example"),
		biz("No Site", ""),
	})

	res, err := f.pipeline.RunNext(context.Background(), model.RunParams{RadiusMeters: 5000, Limit: 20, Check: true})
	require.NoError(t, err)

	assert.Equal(t, model.StateDone, res.State)
	assert.Equal(t, 3, res.BusinessesFound)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, 3, res.LeadsAdded) // check annotates, never excludes
	assert.Equal(t, 1, f.detector.calls)

	// The locator limit widens so the configured limit can count only
	// website-bearing records.
	assert.Equal(t, maxCandidates, f.locator.gotLimit)

	leads, err := f.store.LoadLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 3)
	require.NotNil(t, leads[0].Tracking)
	assert.True(t, leads[0].Tracking.HasAnalytics)
	require.NotNil(t, leads[2].Tracking)
	assert.Equal(t, "no website", leads[2].Tracking.Error)
}

func TestRunNextFilterMode(t *testing.T) {
	f := newFixture(t, []model.Business{
		biz("Tracked", "https://tracked.example"),
		biz("Plain", "https://plain.example"),
		biz("No Site", ""),
		biz("Broken", "https://broken.example"),
	})

	res, err := f.pipeline.RunNext(context.Background(), model.RunParams{RadiusMeters: 5000, Limit: 20, Filter: true})
	require.NoError(t, err)

	assert.Equal(t, model.StateDone, res.State)
	assert.Equal(t, 4, res.BusinessesFound)
	assert.Equal(t, 3, res.Checked) // no-website records are excluded pre-check
	assert.Equal(t, 1, res.DetectErrors)
	assert.Equal(t, 1, res.LeadsAdded)

	leads, err := f.store.LoadLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Tracked", leads[0].Name)
}

func TestRunNextFilterNothingTracked(t *testing.T) {
	f := newFixture(t, []model.Business{biz("Plain", "https://plain.example")})

	res, err := f.pipeline.RunNext(context.Background(), model.RunParams{RadiusMeters: 5000, Limit: 20, Filter: true})
	require.NoError(t, err)
	assert.Equal(t, model.StateNoResults, res.State)
	assert.Zero(t, res.LeadsAdded)

	// Rotation and history still advanced.
	rot, err := f.store.LoadRotation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rot.TotalRuns)
	history, err := f.store.LoadHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].Error)
}

func TestRunNextNoBusinesses(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.pipeline.RunNext(context.Background(), model.RunParams{RadiusMeters: 5000, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, model.StateNoResults, res.State)
	assert.Zero(t, res.BusinessesFound)
	assert.Nil(t, res.Err)
}

func TestRunNextResolveFailureStillAdvances(t *testing.T) {
	f := newFixture(t, nil)
	f.resolver.err = errors.New("rate limited")

	res, err := f.pipeline.RunNext(context.Background(), model.RunParams{RadiusMeters: 5000, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, res.State)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "resolving location")

	ctx := context.Background()

	// The leads slot is untouched, but the cursor moved and the failure is
	// on the record.
	leads, err := f.store.LoadLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	rot, err := f.store.LoadRotation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rot.CategoryIndex)
	assert.Equal(t, 1, rot.TotalRuns)

	history, err := f.store.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Error, "rate limited")
}

func TestRunNextSearchFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.locator.err = errors.New("status 504")

	res, err := f.pipeline.RunNext(context.Background(), model.RunParams{RadiusMeters: 5000, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, res.State)
	assert.Contains(t, res.Err.Error(), "searching businesses")
}

func TestRunNextRotationWalksCombinations(t *testing.T) {
	f := newFixture(t, []model.Business{biz("A", "")})
	ctx := context.Background()
	params := model.RunParams{RadiusMeters: 5000, Limit: 20}

	res1, err := f.pipeline.RunNext(ctx, params)
	require.NoError(t, err)
	res2, err := f.pipeline.RunNext(ctx, params)
	require.NoError(t, err)
	res3, err := f.pipeline.RunNext(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, [2]string{"dentist", "Austin, TX"}, [2]string{res1.Category, res1.Location})
	assert.Equal(t, [2]string{"cafe", "Austin, TX"}, [2]string{res2.Category, res2.Location})
	assert.Equal(t, [2]string{"dentist", "Denver, CO"}, [2]string{res3.Category, res3.Location})
	assert.Equal(t, 3, res3.RunNumber)
}

func TestRunNextDedupAcrossRuns(t *testing.T) {
	f := newFixture(t, []model.Business{biz("Same Name", "https://a.example"), biz("Fresh", "")})
	ctx := context.Background()
	params := model.RunParams{RadiusMeters: 5000, Limit: 20}

	res1, err := f.pipeline.RunNext(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 2, res1.LeadsAdded)

	// Second run hits the same location only after a full category cycle;
	// run 2 is still Austin with the other category, so both records are
	// duplicates by name+city.
	res2, err := f.pipeline.RunNext(ctx, params)
	require.NoError(t, err)
	assert.Zero(t, res2.LeadsAdded)
	assert.Equal(t, 2, res2.TotalLeads)

	// Run 3 moves to Denver: same names, new market, new leads.
	res3, err := f.pipeline.RunNext(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 2, res3.LeadsAdded)
	assert.Equal(t, 4, res3.TotalLeads)
}

func TestRunNextDryRun(t *testing.T) {
	f := newFixture(t, []model.Business{biz("A", "")})

	res, err := f.pipeline.RunNext(context.Background(), model.RunParams{RadiusMeters: 5000, Limit: 20, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, res.State)
	assert.Zero(t, res.LeadsAdded)

	ctx := context.Background()
	leads, err := f.store.LoadLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)

	// Dry run still advances the cursor and logs history.
	rot, err := f.store.LoadRotation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rot.TotalRuns)
}

func TestRunOnceDoesNotAdvanceRotation(t *testing.T) {
	f := newFixture(t, []model.Business{biz("A", "")})

	res, err := f.pipeline.RunOnce(context.Background(), model.RunParams{
		Category: "bakery", Location: "Boise", RadiusMeters: 5000, Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StateDone, res.State)
	assert.Equal(t, "bakery", res.Category)
	assert.Equal(t, 1, res.LeadsAdded)

	ctx := context.Background()
	rot, err := f.store.LoadRotation(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RotationState{}, rot)

	history, err := f.store.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	leads, err := f.store.LoadLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Boise", leads[0].ScrapedCity)
}

func TestSelectCandidatesLimitCountsWebsitesOnly(t *testing.T) {
	located := []model.Business{
		biz("s1", "https://1.example"),
		biz("n1", ""),
		biz("s2", "https://2.example"),
		biz("s3", "https://3.example"),
		biz("n2", ""),
	}

	// Check mode: two website-bearing records plus every no-website record.
	out := selectCandidates(located, 2, false)
	require.Len(t, out, 4)
	assert.Equal(t, "s1", out[0].Name)
	assert.Equal(t, "n1", out[1].Name)
	assert.Equal(t, "s2", out[2].Name)
	assert.Equal(t, "n2", out[3].Name)

	// Filter mode: no-website records drop out entirely.
	out = selectCandidates(located, 2, true)
	require.Len(t, out, 2)
	assert.Equal(t, "s1", out[0].Name)
	assert.Equal(t, "s2", out[1].Name)
}
