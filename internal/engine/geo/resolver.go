package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

// ErrUnresolvable means neither the static table nor the geocoder could
// place the location. Terminal for the run.
var ErrUnresolvable = errors.New("location could not be resolved")

// ErrRateLimited means the geocoder refused the request. Not retried.
var ErrRateLimited = errors.New("geocoding service rate limited")

// Resolver maps free-text place names to coordinates, preferring the static
// city table and falling back to a single OSM Nominatim call.
type Resolver struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

// NewResolver builds a resolver against the given Nominatim search endpoint.
func NewResolver(baseURL, userAgent string) *Resolver {
	return &Resolver{
		http:      &http.Client{Timeout: 10 * time.Second},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// Resolve returns coordinates for a free-text place name. The static table
// is consulted first by substring match (first entry whose key appears in
// the lowercased input wins); only on a miss does one geocoding request go
// out. Geocoding failure is terminal, never retried.
func (r *Resolver) Resolve(ctx context.Context, place string) (model.Coordinates, error) {
	lower := strings.ToLower(place)
	for _, c := range cityTable {
		if strings.Contains(lower, c.key) {
			return model.Coordinates{Lat: c.lat, Lng: c.lng, DisplayName: c.display}, nil
		}
	}
	return r.geocode(ctx, place)
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (r *Resolver) geocode(ctx context.Context, place string) (model.Coordinates, error) {
	u := r.baseURL + "?" + url.Values{
		"q":      {place},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusTooManyRequests:
		return model.Coordinates{}, fmt.Errorf("%w (status %d): try a known city name instead of %q",
			ErrRateLimited, resp.StatusCode, place)
	case resp.StatusCode != http.StatusOK:
		return model.Coordinates{}, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return model.Coordinates{}, fmt.Errorf("decoding geocoding response: %w", err)
	}

	if len(results) == 0 {
		return model.Coordinates{}, fmt.Errorf("%w: %q", ErrUnresolvable, place)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("invalid latitude from geocoder: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("invalid longitude from geocoder: %w", err)
	}

	return model.Coordinates{Lat: lat, Lng: lng, DisplayName: results[0].DisplayName}, nil
}
