package domain

import (
	"cmp"
	"maps"
	"slices"
)

// StateAggregate is the per-state summary of every record for that state.
// Total always equals the sum of RowTotal over Records.
type StateAggregate struct {
	State   string        `json:"state"`
	Total   float64       `json:"total"`
	Records []UsageRecord `json:"records,omitempty"`
}

// YearIndex is the set of distinct years observed in a dataset.
type YearIndex map[int]struct{}

// Add records a year. Zero is ignored.
func (y YearIndex) Add(year int) {
	if year == 0 {
		return
	}
	y[year] = struct{}{}
}

// Has reports whether the year was observed.
func (y YearIndex) Has(year int) bool {
	_, ok := y[year]
	return ok
}

// Sorted returns the years in ascending order.
func (y YearIndex) Sorted() []int {
	return slices.Sorted(maps.Keys(y))
}

// Aggregate groups records by state and collects the distinct years.
// Records keep their input order within each state. Empty input yields empty
// outputs, never nil maps.
func Aggregate(records []UsageRecord) (map[string]StateAggregate, YearIndex) {
	states := make(map[string]StateAggregate)
	years := make(YearIndex)
	for _, rec := range records {
		state := rec.State
		if state == "" {
			state = UnknownState
		}
		agg := states[state]
		agg.State = state
		agg.Total += rec.RowTotal()
		agg.Records = append(agg.Records, rec)
		states[state] = agg
		years.Add(rec.Year)
	}
	return states, years
}

// Dataset is the aggregated view every query and renderer reads from.
type Dataset struct {
	States map[string]StateAggregate
	Years  YearIndex
}

// NewDataset aggregates raw records.
func NewDataset(records []UsageRecord) Dataset {
	states, years := Aggregate(records)
	return Dataset{States: states, Years: years}
}

// Empty reports whether the dataset has no states.
func (d Dataset) Empty() bool {
	return len(d.States) == 0
}

// StateNames returns the state names in ascending order.
func (d Dataset) StateNames() []string {
	return slices.Sorted(maps.Keys(d.States))
}

// RecordCount returns the number of records across all states.
func (d Dataset) RecordCount() int {
	n := 0
	for _, agg := range d.States {
		n += len(agg.Records)
	}
	return n
}

// StateTotals returns the all-years total per state.
func (d Dataset) StateTotals() map[string]float64 {
	out := make(map[string]float64, len(d.States))
	for name, agg := range d.States {
		out[name] = agg.Total
	}
	return out
}

// YearTotals returns per-state totals for one year. Only states with a
// positive total appear.
func (d Dataset) YearTotals(year int) map[string]float64 {
	out := make(map[string]float64)
	for name, agg := range d.States {
		var sum float64
		for _, rec := range agg.Records {
			if rec.Year == year {
				sum += rec.RowTotal()
			}
		}
		if sum > 0 {
			out[name] = sum
		}
	}
	return out
}

// Total returns the grand total across every state.
func (d Dataset) Total() float64 {
	var sum float64
	for _, agg := range d.States {
		sum += agg.Total
	}
	return sum
}

// StateValue pairs a state with a quantity.
type StateValue struct {
	State string  `json:"state"`
	Value float64 `json:"value"`
}

// RankValues sorts totals descending, ties broken by state name, and keeps at
// most n entries. n <= 0 keeps all of them.
func RankValues(totals map[string]float64, n int) []StateValue {
	out := make([]StateValue, 0, len(totals))
	for state, v := range totals {
		out = append(out, StateValue{State: state, Value: v})
	}
	slices.SortFunc(out, func(a, b StateValue) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.State, b.State)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopStates returns the n states with the largest all-years totals.
func (d Dataset) TopStates(n int) []StateValue {
	return RankValues(d.StateTotals(), n)
}

// StateDetail is the popup payload for a single state.
type StateDetail struct {
	State       string  `json:"state"`
	Total       float64 `json:"total"`
	TopCompound string  `json:"top_compound,omitempty"`
	TopYear     int     `json:"top_year,omitempty"`
	Records     int     `json:"records"`
}

// Detail summarizes one state. The second return is false for unknown states.
func (d Dataset) Detail(state string) (StateDetail, bool) {
	agg, ok := d.States[state]
	if !ok {
		return StateDetail{}, false
	}
	byCompound := make(map[string]float64)
	byYear := make(map[string]float64)
	for _, rec := range agg.Records {
		if rec.Compound != "" {
			byCompound[rec.Compound] += rec.RowTotal()
		}
		if rec.Year != 0 {
			byYear[yearKey(rec.Year)] += rec.RowTotal()
		}
	}
	detail := StateDetail{State: state, Total: agg.Total, Records: len(agg.Records)}
	if top := RankValues(byCompound, 1); len(top) == 1 {
		detail.TopCompound = top[0].State
	}
	if top := RankValues(byYear, 1); len(top) == 1 {
		detail.TopYear = parseYear(top[0].State)
	}
	return detail, true
}
