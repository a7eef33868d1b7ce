package domain

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// UnknownState buckets records whose state column is empty.
const UnknownState = "Unknown"

// metadataColumns are excluded from crop totals. Keys are lower-cased header names.
var metadataColumns = map[string]struct{}{
	"state":           {},
	"state_fips":      {},
	"state_fips_code": {},
	"compound":        {},
	"year":            {},
	"units":           {},
}

// nonNumericRe matches everything ParseLenient discards before parsing.
var nonNumericRe = regexp.MustCompile(`[^0-9eE.\-+]`)

// UsageRecord is one parsed row of pesticide usage.
type UsageRecord struct {
	State      string             `json:"state"`
	Year       int                `json:"year,omitempty"` // 0 when blank or unparseable
	Compound   string             `json:"compound,omitempty"`
	CropTotals map[string]float64 `json:"crop_totals"`
}

// RowTotal sums every crop-category quantity on the record.
func (r UsageRecord) RowTotal() float64 {
	if len(r.CropTotals) == 0 {
		return 0
	}
	keys := slices.Sorted(maps.Keys(r.CropTotals))
	values := make([]float64, len(keys))
	for i, k := range keys {
		values[i] = r.CropTotals[k]
	}
	return floats.Sum(values)
}

// IsMetadataColumn reports whether a header names a non-quantity column.
func IsMetadataColumn(header string) bool {
	_, ok := metadataColumns[strings.ToLower(strings.TrimSpace(header))]
	return ok
}

// NewUsageRecord builds a record from a header-to-cell row. Metadata columns
// are matched case-insensitively; all other columns are parsed with ParseLenient.
func NewUsageRecord(row map[string]string) UsageRecord {
	rec := UsageRecord{CropTotals: make(map[string]float64)}
	for header, cell := range row {
		key := strings.ToLower(strings.TrimSpace(header))
		switch key {
		case "state":
			rec.State = strings.TrimSpace(cell)
		case "compound":
			rec.Compound = strings.TrimSpace(cell)
		case "year":
			rec.Year = parseYear(cell)
		}
		if _, meta := metadataColumns[key]; meta || key == "" {
			continue
		}
		rec.CropTotals[strings.TrimSpace(header)] = ParseLenient(cell)
	}
	return rec
}

// ParseLenient converts a quantity cell to a float. Every character other than
// digits, exponent markers, '.', '-' and '+' is stripped first, so thousands
// separators and unit suffixes are tolerated. Empty or unparseable cells yield 0.
// Malformed cells therefore undercount silently.
func ParseLenient(s string) float64 {
	cleaned := nonNumericRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	y, err := strconv.Atoi(s)
	if err != nil || y <= 0 {
		return 0
	}
	return y
}
