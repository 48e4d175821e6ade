// Package pipeline composes the resolver, locator, detector and store into
// the single-run contract: resolve -> locate -> detect -> filter -> persist,
// with the rotation cursor advancing once per run no matter the outcome.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/detect"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/rotation"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/storage"
	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

// maxCandidates caps how many raw records one search may return when the
// limit applies to the website-bearing subset rather than the raw set.
const maxCandidates = 200

// Resolver maps a place name to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, place string) (model.Coordinates, error)
}

// Locator searches businesses of a category around coordinates.
type Locator interface {
	Search(ctx context.Context, category string, coords model.Coordinates, radiusMeters, limit int) ([]model.Business, error)
}

// Detector checks websites for tracking signatures.
type Detector interface {
	DetectAll(ctx context.Context, records []model.Business, onProgress detect.ProgressFunc) []model.TrackingResult
}

// Options tunes a Pipeline beyond its collaborators.
type Options struct {
	Categories   []string
	Locations    []string
	GeocodeDelay time.Duration
	SearchDelay  time.Duration

	// Sleep overrides the suspension primitive; tests substitute a no-op.
	Sleep func(time.Duration)

	// OnProgress receives per-record detection updates.
	OnProgress detect.ProgressFunc

	// OnState receives state transitions as the run advances.
	OnState func(model.RunState)
}

// Pipeline runs the acquisition-and-accumulation flow.
type Pipeline struct {
	resolver Resolver
	locator  Locator
	detector Detector
	store    *storage.Store
	log      *zap.Logger
	opts     Options
	sleep    func(time.Duration)
	now      func() time.Time
}

// New wires a pipeline. The store carries all cross-run state; the
// pipeline itself is stateless between runs.
func New(resolver Resolver, locator Locator, detector Detector, store *storage.Store, log *zap.Logger, opts Options) *Pipeline {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Pipeline{
		resolver: resolver,
		locator:  locator,
		detector: detector,
		store:    store,
		log:      log,
		opts:     opts,
		sleep:    sleep,
		now:      time.Now,
	}
}

// RunNext executes one run for the rotation's current combination, then
// advances the cursor and appends a history entry regardless of outcome.
// Only a successful run touches the leads slot.
func (p *Pipeline) RunNext(ctx context.Context, params model.RunParams) (*model.RunResult, error) {
	leads, err := p.store.LoadLeads(ctx)
	if err != nil {
		return nil, err
	}
	state, err := p.store.LoadRotation(ctx)
	if err != nil {
		return nil, err
	}
	history, err := p.store.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}

	params.Category, params.Location = rotation.Current(state, p.opts.Categories, p.opts.Locations)
	runNumber := state.TotalRuns + 1

	res, qualified := p.execute(ctx, params, runNumber)

	totalAfter := len(leads)
	if res.Err == nil && !params.DryRun {
		merged, added := storage.MergeLeads(leads, qualified)
		if err := p.store.SaveLeads(ctx, merged); err != nil {
			return nil, err
		}
		res.LeadsAdded = added
		totalAfter = len(merged)
	}
	res.TotalLeads = totalAfter

	next := rotation.Next(state, len(p.opts.Categories), len(p.opts.Locations))
	if err := p.store.SaveRotation(ctx, next); err != nil {
		return nil, err
	}

	entry := model.RunHistoryEntry{
		Timestamp:       p.now().UTC(),
		Location:        params.Location,
		Category:        params.Category,
		BusinessesFound: res.BusinessesFound,
		LeadsAdded:      res.LeadsAdded,
		TotalLeadsAfter: totalAfter,
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	if err := p.store.SaveHistory(ctx, storage.AppendHistory(history, entry)); err != nil {
		return nil, err
	}

	return res, nil
}

// RunOnce executes a single explicit combination without moving the
// rotation cursor. Leads are still deduplicated and persisted.
func (p *Pipeline) RunOnce(ctx context.Context, params model.RunParams) (*model.RunResult, error) {
	res, qualified := p.execute(ctx, params, 0)

	if res.Err == nil && !params.DryRun {
		leads, err := p.store.LoadLeads(ctx)
		if err != nil {
			return nil, err
		}
		merged, added := storage.MergeLeads(leads, qualified)
		if err := p.store.SaveLeads(ctx, merged); err != nil {
			return nil, err
		}
		res.LeadsAdded = added
		res.TotalLeads = len(merged)
	}

	return res, nil
}

// execute runs the data work for one combination. It never touches the
// store; persistence decisions belong to the caller.
func (p *Pipeline) execute(ctx context.Context, params model.RunParams, runNumber int) (*model.RunResult, []model.Lead) {
	res := &model.RunResult{
		State:     model.StateIdle,
		Category:  params.Category,
		Location:  params.Location,
		RunNumber: runNumber,
	}
	check := params.Check || params.Filter

	log := p.log.With(
		zap.String("category", params.Category),
		zap.String("location", params.Location),
		zap.Int("run", runNumber),
	)

	p.setState(res, model.StateResolving)
	p.sleep(p.opts.GeocodeDelay)
	coords, err := p.resolver.Resolve(ctx, params.Location)
	if err != nil {
		res.State = model.StateFailed
		res.Err = fmt.Errorf("run %d (%s / %s): resolving location: %w", runNumber, params.Category, params.Location, err)
		log.Error("location resolution failed", zap.Error(err))
		return res, nil
	}
	log.Info("location resolved", zap.Float64("lat", coords.Lat), zap.Float64("lng", coords.Lng))

	p.setState(res, model.StateLocating)
	p.sleep(p.opts.SearchDelay)
	searchLimit := params.Limit
	if check {
		searchLimit = maxCandidates
	}
	located, err := p.locator.Search(ctx, params.Category, coords, params.RadiusMeters, searchLimit)
	if err != nil {
		res.State = model.StateFailed
		res.Err = fmt.Errorf("run %d (%s / %s): searching businesses: %w", runNumber, params.Category, params.Location, err)
		log.Error("business search failed", zap.Error(err))
		return res, nil
	}
	res.BusinessesFound = len(located)
	log.Info("businesses located", zap.Int("count", len(located)))

	if len(located) == 0 {
		res.State = model.StateNoResults
		return res, nil
	}

	if !check {
		return p.finish(res, located, nil, params, log)
	}

	candidates := selectCandidates(located, params.Limit, params.Filter)
	if len(candidates) == 0 {
		res.State = model.StateNoResults
		return res, nil
	}

	p.setState(res, model.StateDetecting)
	results := p.detector.DetectAll(ctx, candidates, p.opts.OnProgress)

	kept := candidates[:0:0]
	var keptResults []model.TrackingResult
	for i := range candidates {
		r := results[i]
		if r.Error != "" && r.Error != "no website" {
			res.DetectErrors++
		}
		if candidates[i].Website != "" {
			res.Checked++
		}
		if params.Filter && !r.Tracked() {
			continue
		}
		kept = append(kept, candidates[i])
		keptResults = append(keptResults, r)
	}

	if len(kept) == 0 {
		res.State = model.StateNoResults
		return res, nil
	}

	return p.finish(res, kept, keptResults, params, log)
}

// selectCandidates applies the mode matrix's eligibility rules. The limit
// counts website-bearing records only; in filter mode records without a
// website are excluded before limiting, in check mode they ride along
// unchecked.
func selectCandidates(located []model.Business, limit int, filter bool) []model.Business {
	var out []model.Business
	withSite := 0
	for _, b := range located {
		if b.Website == "" {
			if !filter {
				out = append(out, b)
			}
			continue
		}
		if withSite >= limit {
			continue
		}
		withSite++
		out = append(out, b)
	}
	return out
}

func (p *Pipeline) finish(res *model.RunResult, records []model.Business, results []model.TrackingResult, params model.RunParams, log *zap.Logger) (*model.RunResult, []model.Lead) {
	p.setState(res, model.StatePersisting)

	scrapedAt := p.now().UTC()
	leads := make([]model.Lead, len(records))
	for i, b := range records {
		lead := model.Lead{
			Business:    b,
			ScrapedCity: params.Location,
			ScrapedAt:   scrapedAt,
		}
		if results != nil {
			r := results[i]
			lead.Tracking = &r
		}
		leads[i] = lead
	}

	res.State = model.StateDone
	log.Info("run complete",
		zap.Int("businesses", res.BusinessesFound),
		zap.Int("checked", res.Checked),
		zap.Int("detect_errors", res.DetectErrors),
		zap.Int("qualified", len(leads)),
	)
	return res, leads
}

func (p *Pipeline) setState(res *model.RunResult, s model.RunState) {
	res.State = s
	if p.opts.OnState != nil {
		p.opts.OnState(s)
	}
}
