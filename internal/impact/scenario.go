package impact

import (
	"fmt"
	"math"
	"time"
)

// RegionSeed is the demonstration baseline for one world region.
type RegionSeed struct {
	Region        string  `json:"region"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	BasePesticide float64 `json:"base_pesticide"` // lbs per year
}

// RegionSeeds are the built-in regional baselines.
var RegionSeeds = []RegionSeed{
	{Region: "North America", Lat: 40, Lng: -100, BasePesticide: 1200},
	{Region: "South America", Lat: -10, Lng: -60, BasePesticide: 800},
	{Region: "Europe", Lat: 50, Lng: 10, BasePesticide: 900},
	{Region: "Asia", Lat: 30, Lng: 100, BasePesticide: 2000},
	{Region: "Africa", Lat: 0, Lng: 20, BasePesticide: 700},
	{Region: "Oceania", Lat: -25, Lng: 135, BasePesticide: 200},
}

// AllRegions selects every seed.
const AllRegions = "All"

// ScenarioFilters select the regional series. Zero Years means 5 and zero
// ScenarioPct means 50.
type ScenarioFilters struct {
	Region      string  `json:"region"`
	Years       int     `json:"years"`
	ScenarioPct float64 `json:"scenario"`
}

// ScenarioPoint is one year of the regional series.
type ScenarioPoint struct {
	Year             int     `json:"year"`
	PesticideReduced float64 `json:"pesticide_reduced"` // lbs
	CO2Tonnes        float64 `json:"co2"`
	WaterLiters      float64 `json:"water"`
	CostUSD          float64 `json:"cost"`
}

// ScenarioSeries builds a per-year series ending at now's year. Each region's
// baseline is discounted by the annual trend for every year before now, then
// scaled by the scenario percentage.
func ScenarioSeries(f ScenarioFilters, now time.Time, a Assumptions) ([]ScenarioPoint, error) {
	years := f.Years
	if years == 0 {
		years = 5
	}
	if years < 0 || years > 100 {
		return nil, fmt.Errorf("years must be between 1 and 100, got %d", years)
	}
	scenarioPct := f.ScenarioPct
	if scenarioPct == 0 {
		scenarioPct = 50
	}
	scenario := scenarioPct / 100

	seeds, err := selectRegions(f.Region)
	if err != nil {
		return nil, err
	}

	current := now.Year()
	out := make([]ScenarioPoint, 0, years)
	for y := current - years + 1; y <= current; y++ {
		var lbs, co2, water, cost float64
		for _, r := range seeds {
			base := r.BasePesticide * math.Pow(1+a.AnnualTrend, -float64(current-y))
			reducedLbs := base * scenario
			reducedKg := reducedLbs * KgPerLb
			lbs += reducedLbs
			co2 += reducedKg * a.CO2PerKgPesticide / 1000
			water += reducedKg * a.WaterLitersPerKg
			cost += reducedKg * a.CostPerKg
		}
		out = append(out, ScenarioPoint{
			Year:             y,
			PesticideReduced: math.Round(lbs),
			CO2Tonnes:        Round(co2, 3),
			WaterLiters:      math.Round(water),
			CostUSD:          math.Round(cost),
		})
	}
	return out, nil
}

func selectRegions(region string) ([]RegionSeed, error) {
	if region == "" || region == AllRegions {
		return RegionSeeds, nil
	}
	for _, r := range RegionSeeds {
		if r.Region == region {
			return []RegionSeed{r}, nil
		}
	}
	return nil, fmt.Errorf("unknown region %q", region)
}
