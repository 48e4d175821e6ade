package overpass

import (
	"regexp"
	"strings"
)

// tagPredicate is one key=value (or key~value regex) filter in the OSM
// schema. A category maps to an ordered set of predicates; each predicate
// contributes a node and a way clause to the union query.
type tagPredicate struct {
	Key   string
	Value string
	Regex bool
}

// categoryPredicates maps canonical categories to their OSM tag filters.
var categoryPredicates = map[string][]tagPredicate{
	"dentist":      {{Key: "amenity", Value: "dentist"}, {Key: "healthcare", Value: "dentist"}},
	"chiropractor": {{Key: "healthcare", Value: "chiropractor"}},
	"veterinarian": {{Key: "amenity", Value: "veterinary"}},
	"pharmacy":     {{Key: "amenity", Value: "pharmacy"}, {Key: "healthcare", Value: "pharmacy"}},
	"restaurant":   {{Key: "amenity", Value: "restaurant"}},
	"cafe":         {{Key: "amenity", Value: "cafe"}},
	"bar":          {{Key: "amenity", Value: "bar"}},
	"bakery":       {{Key: "shop", Value: "bakery"}},
	"gym":          {{Key: "leisure", Value: "fitness_centre"}},
	"hair salon":   {{Key: "shop", Value: "hairdresser"}},
	"beauty salon": {{Key: "shop", Value: "beauty"}},
	"lawyer":       {{Key: "office", Value: "lawyer"}},
	"accountant":   {{Key: "office", Value: "accountant"}},
	"real estate":  {{Key: "office", Value: "estate_agent"}},
}

// synonyms fold common phrasings onto canonical categories.
var synonyms = map[string]string{
	"dental":        "dentist",
	"dental office": "dentist",
	"vet":           "veterinarian",
	"veterinary":    "veterinarian",
	"drugstore":     "pharmacy",
	"coffee":        "cafe",
	"coffee shop":   "cafe",
	"pub":           "bar",
	"fitness":       "gym",
	"fitness center": "gym",
	"barber":        "hair salon",
	"barbershop":    "hair salon",
	"salon":         "hair salon",
	"spa":           "beauty salon",
	"attorney":      "lawyer",
	"law firm":      "lawyer",
	"cpa":           "accountant",
	"realtor":       "real estate",
	"real estate agent": "real estate",
}

// predicatesFor resolves a category to its tag filters. Unmapped categories
// fall back to a case-insensitive name match; the free text is quoted so
// regex metacharacters in it match literally instead of widening (or
// breaking) the query.
func predicatesFor(category string) []tagPredicate {
	key := strings.ToLower(strings.TrimSpace(category))
	if canonical, ok := synonyms[key]; ok {
		key = canonical
	}
	if preds, ok := categoryPredicates[key]; ok {
		return preds
	}
	return []tagPredicate{{Key: "name", Value: regexp.QuoteMeta(key), Regex: true}}
}
