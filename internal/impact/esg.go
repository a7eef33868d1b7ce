package impact

import (
	"math"

	"github.com/google/uuid"
)

// ESGInputs describe a fleet of farms adopting sterile insect technique (SIT)
// and post-harvest irradiation. Percentages are 0–100.
type ESGInputs struct {
	Farms               float64 `json:"farms"`
	Acres               float64 `json:"acres"`
	PesticidePerAcre    float64 `json:"pesticide_per_acre"` // lbs per acre per year
	SITReductionPct     float64 `json:"sit_reduction_pct"`
	IrradiationShelfPct float64 `json:"irradiation_shelf_pct"`
	ProductionTons      float64 `json:"production_tons"`
}

// ESGReport is the computed impact of one ESGInputs set.
type ESGReport struct {
	ID                     string  `json:"id"`
	Farms                  float64 `json:"farms"`
	Acres                  float64 `json:"acres"`
	BaselinePesticideLbs   float64 `json:"baseline_pesticide_total"`
	PesticideAvoidedLbs    float64 `json:"pesticide_avoided"`
	GHGFromPesticideTonnes float64 `json:"ghg_avoided_from_pesticide_t"`
	WaterSavedGallons      float64 `json:"water_saved_gallons"`
	ProductionTons         float64 `json:"production_tons"`
	LossAvoidedTons        float64 `json:"loss_avoided_tons"`
	GHGFromFoodTonnes      float64 `json:"ghg_avoided_from_food_t"`
	TotalGHGAvoidedTonnes  float64 `json:"total_ghg_avoided_t"`
	CarsEquivalent         float64 `json:"cars_equivalent"`
	SustainabilityScore    int     `json:"sustainability_score"`
}

// ESG computes the impact report. The sustainability score gives up to 50
// points for GHG (1000 t CO2e caps it) and up to 50 for water (1,000,000 gallons).
func ESG(in ESGInputs, a Assumptions) ESGReport {
	sit := in.SITReductionPct / 100
	shelf := in.IrradiationShelfPct / 100

	baseline := in.Acres * in.PesticidePerAcre
	avoided := baseline * sit
	ghgPesticide := avoided * a.GHGPerLbPesticideKg / 1000
	water := in.Acres * a.SprayCyclesAvoided * a.GallonsPerSprayAcre
	lossAvoided := in.ProductionTons * a.BaselineFoodLossFrac * shelf
	ghgFood := lossAvoided * a.GHGPerTonFood

	total := Round(ghgPesticide+ghgFood, 3)
	ghgScore := math.Min(50, total/1000*50)
	waterScore := math.Min(50, water/1e6*50)
	score := math.Round(math.Max(0, math.Min(100, ghgScore+waterScore)))

	return ESGReport{
		ID:                     uuid.NewString(),
		Farms:                  in.Farms,
		Acres:                  in.Acres,
		BaselinePesticideLbs:   baseline,
		PesticideAvoidedLbs:    math.Round(avoided),
		GHGFromPesticideTonnes: Round(ghgPesticide, 3),
		WaterSavedGallons:      water,
		ProductionTons:         in.ProductionTons,
		LossAvoidedTons:        Round(lossAvoided, 3),
		GHGFromFoodTonnes:      Round(ghgFood, 3),
		TotalGHGAvoidedTonnes:  total,
		CarsEquivalent:         Round(total/a.CarTonsPerYear, 3),
		SustainabilityScore:    int(score),
	}
}

// HubPoint is one step of the hub scaling projection.
type HubPoint struct {
	Hubs                  int     `json:"hubs"`
	TotalGHGAvoidedTonnes float64 `json:"total_ghg_avoided_t"`
}

// HubScaling projects the report's GHG savings linearly over 1..maxHubs
// identical hubs.
func (r ESGReport) HubScaling(maxHubs int) []HubPoint {
	if maxHubs <= 0 {
		return nil
	}
	out := make([]HubPoint, maxHubs)
	for i := range out {
		n := i + 1
		out[i] = HubPoint{Hubs: n, TotalGHGAvoidedTonnes: Round(float64(n)*r.TotalGHGAvoidedTonnes, 3)}
	}
	return out
}
