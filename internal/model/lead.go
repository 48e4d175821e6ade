package model

import (
	"strings"
	"time"
)

// Coordinates is a resolved location.
type Coordinates struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
}

// Business represents one entity discovered in a single search response.
// Transient: only qualified leads are ever persisted.
type Business struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Website  string  `json:"website,omitempty"`
	Phone    string  `json:"phone,omitempty"`
	Email    string  `json:"email,omitempty"`
	Address  string  `json:"address,omitempty"`
	City     string  `json:"city,omitempty"`
	State    string  `json:"state,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	OSMID    int64   `json:"osm_id"`
	Source   string  `json:"source"`
}

// DedupKey is the intra-response identity: same name within one search
// response collapses to the first occurrence.
func (b Business) DedupKey() string {
	return strings.ToLower(b.Name)
}

// TrackingResult holds the outcome of a tracking-signature check.
// Always well-formed; a failed or skipped check reports false/false
// with the reason in Error.
type TrackingResult struct {
	HasAnalytics bool   `json:"has_analytics"`
	HasPixel     bool   `json:"has_pixel"`
	Error        string `json:"error,omitempty"`
}

// Tracked reports whether either signature was found.
func (t TrackingResult) Tracked() bool {
	return t.HasAnalytics || t.HasPixel
}

// Lead is a Business qualified for outreach, enriched with its tracking
// check and the run that found it.
type Lead struct {
	Business
	Tracking    *TrackingResult `json:"tracking,omitempty"`
	ScrapedCity string          `json:"scraped_city"`
	ScrapedAt   time.Time       `json:"scraped_at"`
}

// Key is the cross-run identity. Unlike DedupKey it includes the scraped
// city, so the same business name found in two markets stays two leads.
func (l Lead) Key() string {
	return strings.ToLower(l.Name) + "-" + strings.ToLower(l.ScrapedCity)
}

// RotationState is the persisted cursor over the category x location space.
type RotationState struct {
	CategoryIndex int `json:"category_index"`
	LocationIndex int `json:"location_index"`
	TotalRuns     int `json:"total_runs"`
}

// RunHistoryEntry is one line of the bounded run log. Immutable once written.
type RunHistoryEntry struct {
	Timestamp       time.Time `json:"timestamp"`
	Location        string    `json:"location"`
	Category        string    `json:"category"`
	BusinessesFound int       `json:"businesses_found"`
	LeadsAdded      int       `json:"leads_added"`
	TotalLeadsAfter int       `json:"total_leads_after"`
	Error           string    `json:"error,omitempty"`
}

// MaxHistory bounds the run log; older entries are dropped on append.
const MaxHistory = 50

// RunState tracks where a pipeline run is, or how it ended.
type RunState string

const (
	StateIdle       RunState = "idle"
	StateResolving  RunState = "resolving"
	StateLocating   RunState = "locating"
	StateDetecting  RunState = "detecting"
	StatePersisting RunState = "persisting"
	StateDone       RunState = "done"
	StateNoResults  RunState = "no_results"
	StateFailed     RunState = "failed"
)

// RunParams holds everything one pipeline run needs to know.
type RunParams struct {
	Category     string
	Location     string
	RadiusMeters int
	Limit        int
	Check        bool // attach tracking results
	Filter       bool // keep only tracked leads; implies Check
	DryRun       bool // skip persistence
}

// RunResult summarizes one completed (or failed) pipeline run.
type RunResult struct {
	State           RunState
	Category        string
	Location        string
	RunNumber       int
	BusinessesFound int
	Checked         int
	DetectErrors    int
	LeadsAdded      int
	TotalLeads      int
	Err             error
}
