// Package domain models pesticide-use data for the SterileLoop overlay.
//
// # Data Source
//
// Usage data comes from the USGS pesticide national synthesis tables, either as
// a raw tab-delimited export (one row per state, year and compound) or as a
// precomputed summary JSON produced by `sterilectl summarize`. Both feed the
// same [Dataset].
//
// # Raw Row Conventions
//
// Metadata columns:
//
//	State, State_FIPS_code, Compound, Year, Units
//
// Matched case-insensitively; every other column is a crop-category quantity
// (kilograms) and contributes to the row total.
//
// Quantity cells:
//
//	"1,234"  →  1234   (non-numeric characters are stripped)
//	"N/A"    →  0
//	""       →  0
//
// This leniency is intentional. It keeps partially populated exports usable at
// the cost of silently undercounting malformed cells. See [ParseLenient].
//
// Missing state names are bucketed under [UnknownState]. Blank or unparseable
// years are recorded as 0 and never enter the [YearIndex].
//
// # Visual Scale
//
// Totals map to circle radius through a square-root curve so that circle area,
// not radius, tracks magnitude. Two domains exist: [PixelScale] for screen
// markers and [MeterScale] for geographic circles. Colour is a fixed green hue
// whose saturation rises and lightness falls with intensity.
//
// # Distances
//
// Provider ranking uses the haversine great-circle distance on a sphere of mean
// radius 6371 km. Providers with non-finite coordinates rank last.
package domain
