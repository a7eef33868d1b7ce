package domain

import (
	_ "embed"
	"encoding/csv"
	"strconv"
	"strings"
	"sync"
)

//go:embed state_centroids.csv
var stateCentroidsCSV string

type stateTable struct {
	centroids map[string]LatLng // lower-cased name and abbreviation
	names     map[string]string // lower-cased name and abbreviation to full name
	abbrs     map[string]string // lower-cased name to abbreviation
}

var stateIndex = sync.OnceValue(func() stateTable {
	rows, err := csv.NewReader(strings.NewReader(stateCentroidsCSV)).ReadAll()
	if err != nil {
		panic("domain: embedded state centroids: " + err.Error())
	}
	t := stateTable{
		centroids: make(map[string]LatLng, 2*len(rows)),
		names:     make(map[string]string, 2*len(rows)),
		abbrs:     make(map[string]string, len(rows)),
	}
	for _, row := range rows[1:] {
		lat, errLat := strconv.ParseFloat(row[2], 64)
		lng, errLng := strconv.ParseFloat(row[3], 64)
		if errLat != nil || errLng != nil {
			panic("domain: embedded state centroids: bad row for " + row[0])
		}
		p := LatLng{Lat: lat, Lng: lng}
		t.centroids[strings.ToLower(row[0])] = p
		t.centroids[strings.ToLower(row[1])] = p
		t.names[strings.ToLower(row[0])] = row[0]
		t.names[strings.ToLower(row[1])] = row[0]
		t.abbrs[strings.ToLower(row[0])] = row[1]
	}
	return t
})

// LookupCentroid returns the geographic centre of a US state, by full name or
// two-letter abbreviation, case-insensitively.
func LookupCentroid(state string) (LatLng, bool) {
	p, ok := stateIndex().centroids[strings.ToLower(strings.TrimSpace(state))]
	return p, ok
}

// LookupState resolves a state name or abbreviation, case-insensitively, to
// its full name and centroid.
func LookupState(state string) (string, LatLng, bool) {
	key := strings.ToLower(strings.TrimSpace(state))
	name, ok := stateIndex().names[key]
	if !ok {
		return "", LatLng{}, false
	}
	return name, stateIndex().centroids[key], true
}

// StateAbbreviation returns the postal code for a full state name.
func StateAbbreviation(state string) (string, bool) {
	abbr, ok := stateIndex().abbrs[strings.ToLower(strings.TrimSpace(state))]
	return abbr, ok
}
