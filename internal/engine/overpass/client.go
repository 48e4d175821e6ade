package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

// ErrUpstream means the spatial query service answered with a non-success
// status. Terminal for the run. "No results" is not an error.
var ErrUpstream = errors.New("spatial query service error")

const sourceTag = "openstreetmap"

// Client issues structured geo-queries against an Overpass endpoint.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

// NewClient builds a locator against the given Overpass interpreter URL.
// The timeout is the long per-call bound: union queries over a metro radius
// routinely take tens of seconds.
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: 40 * time.Second},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// Search returns up to limit businesses of the given category around coords.
// One combined union query, one round trip. No-name elements are dropped,
// duplicates by lowercased name collapse to the first occurrence, and way
// centroids outside the radius are discarded.
func (c *Client) Search(ctx context.Context, category string, coords model.Coordinates, radiusMeters, limit int) ([]model.Business, error) {
	query := buildQuery(category, coords, radiusMeters)

	body := url.Values{"data": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}

	center := orb.Point{coords.Lng, coords.Lat}
	seen := make(map[string]struct{})
	var businesses []model.Business

	for _, el := range parsed.Elements {
		b, ok := elementToBusiness(el, category)
		if !ok {
			continue
		}
		// Ways matched by around: can stretch past the radius even when
		// their centroid lands outside it.
		if el.Type != "node" && geo.DistanceHaversine(center, orb.Point{b.Lng, b.Lat}) > float64(radiusMeters) {
			continue
		}
		key := b.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		businesses = append(businesses, b)
		if len(businesses) >= limit {
			break
		}
	}

	return businesses, nil
}

// buildQuery assembles the single union query: one node and one way clause
// per predicate, all constrained to the radius.
func buildQuery(category string, coords model.Coordinates, radiusMeters int) string {
	around := fmt.Sprintf("(around:%d,%.6f,%.6f)", radiusMeters, coords.Lat, coords.Lng)

	var sb strings.Builder
	sb.WriteString("[out:json][timeout:25];\n(\n")
	for _, p := range predicatesFor(category) {
		var filter string
		if p.Regex {
			filter = fmt.Sprintf("[%q~%q,i]", p.Key, p.Value)
		} else {
			filter = fmt.Sprintf("[%q=%q]", p.Key, p.Value)
		}
		fmt.Fprintf(&sb, "  node%s%s;\n", filter, around)
		fmt.Fprintf(&sb, "  way%s%s;\n", filter, around)
	}
	sb.WriteString(");\nout center;")
	return sb.String()
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// elementToBusiness maps one result element to a record. Elements without
// a name tag are discarded before any identity accounting.
func elementToBusiness(el overpassElement, category string) (model.Business, bool) {
	name := el.Tags["name"]
	if name == "" {
		return model.Business{}, false
	}

	lat, lng := el.Lat, el.Lon
	if (lat == 0 && lng == 0) && el.Center != nil {
		lat, lng = el.Center.Lat, el.Center.Lon
	}

	return model.Business{
		Name:     name,
		Category: category,
		Website:  firstTag(el.Tags, "website", "contact:website", "url"),
		Phone:    firstTag(el.Tags, "phone", "contact:phone"),
		Email:    firstTag(el.Tags, "email", "contact:email"),
		Address:  assembleAddress(el.Tags),
		City:     el.Tags["addr:city"],
		State:    el.Tags["addr:state"],
		Lat:      lat,
		Lng:      lng,
		OSMID:    el.ID,
		Source:   sourceTag,
	}, true
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}

// assembleAddress joins the structured address sub-fields in fixed order,
// skipping whatever is missing: "12 Main St, Springfield, IL, 62704".
func assembleAddress(tags map[string]string) string {
	street := tags["addr:street"]
	if n := tags["addr:housenumber"]; n != "" && street != "" {
		street = n + " " + street
	} else if street == "" {
		street = tags["addr:housenumber"]
	}

	var parts []string
	for _, p := range []string{street, tags["addr:city"], tags["addr:state"], tags["addr:postcode"]} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
