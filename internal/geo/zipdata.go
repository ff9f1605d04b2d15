// Package geo resolves ZIP codes to locations and partitions search results
// into geographic tiers.
package geo

import (
	"fmt"
	"sort"

	"github.com/jonesrussell/partner-finder/internal/domain"
)

type zipEntry struct {
	city   string
	county string
	state  string
}

// zipTable maps ZIP codes to known city/county/state triples for the major
// metro areas the service was seeded with. ZIPs outside the table fall back
// to the remote geocoder.
var zipTable = buildZipTable()

func buildZipTable() map[string]zipEntry {
	t := make(map[string]zipEntry)

	addRange := func(prefix string, from, to int, city, county, state string) {
		for i := from; i <= to; i++ {
			t[fmt.Sprintf("%s%d", prefix, i)] = zipEntry{city: city, county: county, state: state}
		}
	}
	add := func(zip, city, county, state string) {
		t[zip] = zipEntry{city: city, county: county, state: state}
	}

	// Texas - Dallas/Fort Worth
	addRange("7520", 1, 9, "Dallas", "Dallas County", "TX")
	addRange("7521", 0, 9, "Dallas", "Dallas County", "TX")
	addRange("7522", 0, 9, "Dallas", "Dallas County", "TX")
	addRange("7523", 0, 9, "Dallas", "Dallas County", "TX")
	addRange("7524", 0, 9, "Dallas", "Dallas County", "TX")
	addRange("7525", 0, 4, "Dallas", "Dallas County", "TX")
	add("75006", "Carrollton", "Dallas County", "TX")
	add("75007", "Carrollton", "Denton County", "TX")
	add("75038", "Irving", "Dallas County", "TX")
	addRange("7506", 0, 3, "Irving", "Dallas County", "TX")
	add("75074", "Plano", "Collin County", "TX")
	add("75075", "Plano", "Collin County", "TX")
	add("75080", "Richardson", "Dallas County", "TX")
	add("75081", "Richardson", "Dallas County", "TX")
	addRange("7610", 1, 5, "Fort Worth", "Tarrant County", "TX")
	add("76006", "Arlington", "Tarrant County", "TX")
	addRange("7601", 0, 2, "Arlington", "Tarrant County", "TX")

	// Texas - Houston
	addRange("7700", 1, 9, "Houston", "Harris County", "TX")
	addRange("7701", 0, 9, "Houston", "Harris County", "TX")
	addRange("7702", 0, 9, "Houston", "Harris County", "TX")
	addRange("7703", 0, 9, "Houston", "Harris County", "TX")
	addRange("7704", 0, 9, "Houston", "Harris County", "TX")
	addRange("7705", 0, 9, "Houston", "Harris County", "TX")
	addRange("7706", 0, 9, "Houston", "Harris County", "TX")
	addRange("7707", 0, 9, "Houston", "Harris County", "TX")
	add("77478", "Sugar Land", "Fort Bend County", "TX")
	add("77479", "Sugar Land", "Fort Bend County", "TX")
	add("77449", "Katy", "Harris County", "TX")
	add("77450", "Katy", "Harris County", "TX")

	// Texas - San Antonio, Austin, El Paso
	addRange("7820", 1, 9, "San Antonio", "Bexar County", "TX")
	addRange("7821", 0, 9, "San Antonio", "Bexar County", "TX")
	addRange("7822", 0, 9, "San Antonio", "Bexar County", "TX")
	addRange("7823", 0, 9, "San Antonio", "Bexar County", "TX")
	addRange("7824", 0, 9, "San Antonio", "Bexar County", "TX")
	addRange("7870", 1, 9, "Austin", "Travis County", "TX")
	addRange("7871", 0, 9, "Austin", "Travis County", "TX")
	addRange("7872", 0, 9, "Austin", "Travis County", "TX")
	addRange("7873", 0, 9, "Austin", "Travis County", "TX")
	addRange("7874", 0, 9, "Austin", "Travis County", "TX")
	addRange("7990", 1, 9, "El Paso", "El Paso County", "TX")
	addRange("7991", 0, 9, "El Paso", "El Paso County", "TX")
	addRange("7992", 0, 9, "El Paso", "El Paso County", "TX")

	// Florida - Pinellas County
	addRange("3370", 1, 9, "St Petersburg", "Pinellas County", "FL")
	addRange("3371", 0, 6, "St Petersburg", "Pinellas County", "FL")
	addRange("3375", 5, 9, "Clearwater", "Pinellas County", "FL")
	addRange("3376", 0, 5, "Clearwater", "Pinellas County", "FL")
	add("33767", "Clearwater Beach", "Pinellas County", "FL")
	add("33770", "Largo", "Pinellas County", "FL")
	add("33771", "Largo", "Pinellas County", "FL")
	add("33773", "Largo", "Pinellas County", "FL")
	add("33774", "Largo", "Pinellas County", "FL")
	add("33778", "Seminole", "Pinellas County", "FL")
	add("33779", "Largo", "Pinellas County", "FL")
	add("33781", "Pinellas Park", "Pinellas County", "FL")
	add("33782", "Pinellas Park", "Pinellas County", "FL")

	// Florida - Miami-Dade, Tampa, Orlando, Jacksonville
	addRange("3310", 1, 9, "Miami", "Miami-Dade County", "FL")
	addRange("3311", 0, 9, "Miami", "Miami-Dade County", "FL")
	addRange("3312", 0, 9, "Miami", "Miami-Dade County", "FL")
	addRange("3313", 0, 8, "Miami", "Miami-Dade County", "FL")
	addRange("3314", 2, 9, "Miami", "Miami-Dade County", "FL")
	addRange("3313", 9, 9, "Miami Beach", "Miami-Dade County", "FL")
	add("33140", "Miami Beach", "Miami-Dade County", "FL")
	add("33141", "Miami Beach", "Miami-Dade County", "FL")
	addRange("3360", 1, 9, "Tampa", "Hillsborough County", "FL")
	addRange("3361", 0, 9, "Tampa", "Hillsborough County", "FL")
	addRange("3362", 0, 9, "Tampa", "Hillsborough County", "FL")
	add("33510", "Brandon", "Hillsborough County", "FL")
	add("33511", "Brandon", "Hillsborough County", "FL")
	addRange("3280", 1, 9, "Orlando", "Orange County", "FL")
	addRange("3281", 0, 9, "Orlando", "Orange County", "FL")
	addRange("3282", 0, 9, "Orlando", "Orange County", "FL")

	// New York City boroughs
	addRange("1000", 1, 9, "New York", "New York County", "NY")
	addRange("1001", 0, 9, "New York", "New York County", "NY")
	addRange("1002", 0, 9, "New York", "New York County", "NY")
	addRange("1120", 1, 9, "Brooklyn", "Kings County", "NY")
	addRange("1121", 0, 9, "Brooklyn", "Kings County", "NY")
	addRange("1045", 0, 9, "Bronx", "Bronx County", "NY")
	addRange("1046", 0, 9, "Bronx", "Bronx County", "NY")
	addRange("1110", 0, 9, "Queens", "Queens County", "NY")
	addRange("1030", 0, 9, "Staten Island", "Richmond County", "NY")

	// California - Los Angeles, San Diego, San Francisco
	addRange("9000", 1, 9, "Los Angeles", "Los Angeles County", "CA")
	addRange("9001", 0, 9, "Los Angeles", "Los Angeles County", "CA")
	addRange("9002", 0, 9, "Los Angeles", "Los Angeles County", "CA")
	addRange("9003", 0, 9, "Los Angeles", "Los Angeles County", "CA")
	addRange("9004", 0, 9, "Los Angeles", "Los Angeles County", "CA")
	add("90210", "Beverly Hills", "Los Angeles County", "CA")
	add("90211", "Beverly Hills", "Los Angeles County", "CA")
	add("90212", "Beverly Hills", "Los Angeles County", "CA")
	addRange("9210", 1, 9, "San Diego", "San Diego County", "CA")
	addRange("9211", 0, 9, "San Diego", "San Diego County", "CA")
	addRange("9212", 0, 9, "San Diego", "San Diego County", "CA")
	addRange("9410", 2, 5, "San Francisco", "San Francisco County", "CA")
	addRange("9410", 7, 9, "San Francisco", "San Francisco County", "CA")
	add("94110", "San Francisco", "San Francisco County", "CA")

	// Illinois - Chicago
	addRange("6060", 1, 9, "Chicago", "Cook County", "IL")
	addRange("6061", 0, 9, "Chicago", "Cook County", "IL")
	addRange("6062", 0, 9, "Chicago", "Cook County", "IL")

	return t
}

// LookupZip returns the static table entry for a ZIP code, or nil when the
// ZIP is outside the table.
func LookupZip(zip string) *domain.Location {
	e, ok := zipTable[zip]
	if !ok {
		return nil
	}
	return &domain.Location{
		Zip:    zip,
		City:   e.city,
		County: e.county,
		State:  e.state,
	}
}

// CountyCities returns the sorted list of distinct cities the static table
// knows for a county and state.
func CountyCities(county, state string) []string {
	seen := make(map[string]struct{})
	for _, e := range zipTable {
		if e.county == county && e.state == state {
			seen[e.city] = struct{}{}
		}
	}

	cities := make([]string, 0, len(seen))
	for c := range seen {
		cities = append(cities, c)
	}
	sort.Strings(cities)
	return cities
}
