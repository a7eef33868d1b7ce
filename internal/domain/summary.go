package domain

import (
	"slices"
	"strconv"
	"strings"
)

// summaryCropKey is the single crop category used for records rebuilt from a summary.
const summaryCropKey = "total"

// StateTotal is the per-state entry of a summary's by_state map.
type StateTotal struct {
	Total float64 `json:"total"`
}

// Summary is the precomputed JSON form of a dataset. ByStateYear is keyed by
// year (as a string) and then by state.
type Summary struct {
	Years       []int                         `json:"years"`
	States      []string                      `json:"states"`
	ByState     map[string]StateTotal         `json:"by_state"`
	ByStateYear map[string]map[string]float64 `json:"by_state_year"`
}

// FromSummary rebuilds a dataset from a summary without re-aggregating raw rows.
//
// States are the union of the states list, by_state keys and every state named
// in by_state_year. Each positive per-year value becomes one record. When a
// by_state total exceeds the per-year sum, the remainder is kept as one record
// with Year 0 so that every StateAggregate total still equals its record sum.
func FromSummary(s Summary) Dataset {
	years := make(YearIndex)
	for _, y := range s.Years {
		years.Add(y)
	}
	yearKeys := make([]string, 0, len(s.ByStateYear))
	for key := range s.ByStateYear {
		yearKeys = append(yearKeys, key)
	}
	slices.SortFunc(yearKeys, func(a, b string) int { return parseYear(a) - parseYear(b) })

	names := make(map[string]struct{})
	for _, st := range s.States {
		names[st] = struct{}{}
	}
	for st := range s.ByState {
		names[st] = struct{}{}
	}
	for _, key := range yearKeys {
		years.Add(parseYear(key))
		for st := range s.ByStateYear[key] {
			names[st] = struct{}{}
		}
	}

	states := make(map[string]StateAggregate, len(names))
	for name := range names {
		state := strings.TrimSpace(name)
		if state == "" {
			state = UnknownState
		}
		agg := states[state]
		agg.State = state
		var perYear float64
		for _, key := range yearKeys {
			v := s.ByStateYear[key][name]
			if v <= 0 {
				continue
			}
			agg.Records = append(agg.Records, UsageRecord{
				State:      state,
				Year:       parseYear(key),
				CropTotals: map[string]float64{summaryCropKey: v},
			})
			agg.Total += v
			perYear += v
		}
		if rest := s.ByState[name].Total - perYear; rest > 0 {
			agg.Records = append(agg.Records, UsageRecord{
				State:      state,
				CropTotals: map[string]float64{summaryCropKey: rest},
			})
			agg.Total += rest
		}
		states[state] = agg
	}
	return Dataset{States: states, Years: years}
}

// Summary flattens the dataset into its precomputed JSON form.
func (d Dataset) Summary() Summary {
	s := Summary{
		Years:       d.Years.Sorted(),
		States:      d.StateNames(),
		ByState:     make(map[string]StateTotal, len(d.States)),
		ByStateYear: make(map[string]map[string]float64),
	}
	for name, agg := range d.States {
		s.ByState[name] = StateTotal{Total: agg.Total}
		for _, rec := range agg.Records {
			if rec.Year == 0 {
				continue
			}
			key := yearKey(rec.Year)
			if s.ByStateYear[key] == nil {
				s.ByStateYear[key] = make(map[string]float64)
			}
			s.ByStateYear[key][name] += rec.RowTotal()
		}
	}
	return s
}

func yearKey(year int) string {
	return strconv.Itoa(year)
}
