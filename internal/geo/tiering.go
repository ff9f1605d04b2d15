package geo

import (
	"sort"
	"strings"

	"github.com/jonesrussell/partner-finder/internal/domain"
)

// Caps bounds how many results each tier contributes to the combined list.
// State results only top the list up when the exact and county tiers
// together hold fewer than BackfillThreshold results.
type Caps struct {
	ExactCityMax      int
	CountyMax         int
	StateMax          int
	BackfillThreshold int
}

// DefaultCaps returns the standard tier limits: 10 city, 8 county, up to 5
// state results as backfill.
func DefaultCaps() Caps {
	return Caps{
		ExactCityMax:      10,
		CountyMax:         8,
		StateMax:          5,
		BackfillThreshold: 10,
	}
}

// Tiers holds search results partitioned by geographic proximity.
type Tiers struct {
	ExactCity []domain.OrganizationRecord
	County    []domain.OrganizationRecord
	State     []domain.OrganizationRecord
	Other     []domain.OrganizationRecord
}

// Counts summarizes tier sizes before capping.
func (t *Tiers) Counts() domain.TierCounts {
	return domain.TierCounts{
		ExactCity: len(t.ExactCity),
		County:    len(t.County),
		State:     len(t.State),
		Other:     len(t.Other),
	}
}

// Partition assigns each candidate to exactly one tier. Membership is
// first-match-wins: exact city, then county (via nearbyCities), then state,
// then other. Each tier is sorted by descending relevance score; the sort is
// stable so registry order breaks ties.
func Partition(candidates []domain.OrganizationRecord, loc *domain.Location, nearbyCities []string) *Tiers {
	t := &Tiers{}
	if loc == nil {
		t.Other = append(t.Other, candidates...)
		return t
	}

	nearby := make(map[string]struct{}, len(nearbyCities))
	for _, c := range nearbyCities {
		nearby[strings.ToLower(c)] = struct{}{}
	}

	for _, org := range candidates {
		switch {
		case loc.City != "" && strings.EqualFold(org.City, loc.City):
			t.ExactCity = append(t.ExactCity, org)
		case inSet(nearby, org.City):
			t.County = append(t.County, org)
		case org.State == loc.State:
			t.State = append(t.State, org)
		default:
			t.Other = append(t.Other, org)
		}
	}

	sortByScore(t.ExactCity)
	sortByScore(t.County)
	sortByScore(t.State)
	sortByScore(t.Other)
	return t
}

func inSet(set map[string]struct{}, city string) bool {
	_, ok := set[strings.ToLower(city)]
	return ok
}

func sortByScore(orgs []domain.OrganizationRecord) {
	sort.SliceStable(orgs, func(i, j int) bool {
		return orgs[i].Score > orgs[j].Score
	})
}

// Combine flattens the tiers into the response order under the given caps.
// The state tier is backfill only: it contributes nothing once the city and
// county tiers alone reach the backfill threshold.
func (t *Tiers) Combine(caps Caps) []domain.OrganizationRecord {
	exact := capSlice(t.ExactCity, caps.ExactCityMax)
	county := capSlice(t.County, caps.CountyMax)

	out := make([]domain.OrganizationRecord, 0, len(exact)+len(county)+caps.StateMax)
	out = append(out, exact...)
	out = append(out, county...)

	if len(out) < caps.BackfillThreshold {
		out = append(out, capSlice(t.State, caps.StateMax)...)
	}
	return out
}

func capSlice(orgs []domain.OrganizationRecord, max int) []domain.OrganizationRecord {
	if max >= 0 && len(orgs) > max {
		return orgs[:max]
	}
	return orgs
}
