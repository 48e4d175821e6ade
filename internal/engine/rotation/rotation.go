// Package rotation implements the deterministic cursor over the
// category x location combination space: a mixed-radix odometer where the
// category index is the inner digit and carries into the location index.
package rotation

import "github.com/jasonsutter87/marketing-lead-generation/internal/model"

// Next advances the cursor by one combination. The category index wraps
// modulo categoryCount and carries into the location index, which wraps
// modulo locationCount. TotalRuns always increments: the cursor moves on
// failed runs too, so a bad combination cannot starve the rotation.
func Next(s model.RotationState, categoryCount, locationCount int) model.RotationState {
	if categoryCount < 1 {
		categoryCount = 1
	}
	if locationCount < 1 {
		locationCount = 1
	}

	next := model.RotationState{
		CategoryIndex: (s.CategoryIndex + 1) % categoryCount,
		LocationIndex: s.LocationIndex % locationCount,
		TotalRuns:     s.TotalRuns + 1,
	}
	if next.CategoryIndex == 0 {
		next.LocationIndex = (s.LocationIndex + 1) % locationCount
	}
	return next
}

// Current projects the cursor onto the combination lists. Modulo indexing
// keeps persisted indices valid even if the lists shrank between runs.
func Current(s model.RotationState, categories, locations []string) (category, location string) {
	if len(categories) > 0 {
		category = categories[s.CategoryIndex%len(categories)]
	}
	if len(locations) > 0 {
		location = locations[s.LocationIndex%len(locations)]
	}
	return category, location
}
