package impact

import (
	"fmt"
	"math"
)

// ProductionUnitKgPerMonth is the only production unit for which tonnes of
// food loss avoided can be estimated.
const ProductionUnitKgPerMonth = "kg/month"

// SustainabilityInputs describe one operation. PesticideLbs is annual use.
// ReductionPct of 0 means "not supplied" and falls back to the default.
type SustainabilityInputs struct {
	PesticideLbs      float64 `json:"pesticide"`
	ReductionPct      float64 `json:"reduction"`
	ProductionSize    float64 `json:"size"`
	ProductionUnit    string  `json:"unit"`
	LossPct           float64 `json:"loss"`
	PesticideCostYear float64 `json:"pesticide_cost_year"`
	CostPerKg         float64 `json:"cost_per_kg"`
}

// SustainabilityResult is the rounded per-operation outcome.
type SustainabilityResult struct {
	PesticideReducedLbs float64     `json:"pesticide_reduced_lbs"`
	PesticideReducedKg  float64     `json:"pesticide_reduced_kg"`
	PesticideReducedPct float64     `json:"pesticide_reduced_pct"`
	CO2AvoidedTonnes    float64     `json:"co2_avoided_t"`
	CO2Formula          string      `json:"co2_formula"`
	WaterSavedLiters    float64     `json:"water_saved_l"`
	CostSavings         float64     `json:"cost_savings"`
	LossReductionPct    float64     `json:"loss_reduction_pct"`
	LossTonnesAvoided   *float64    `json:"loss_tonnes_avoided"`
	Assumptions         Assumptions `json:"assumptions"`
}

// Sustainability estimates the savings of replacing part of an operation's
// pesticide use. Pesticide is entered in pounds and converted to kilograms
// because the emission and water factors are per kilogram.
func Sustainability(in SustainabilityInputs, a Assumptions) SustainabilityResult {
	reductionPct := in.ReductionPct
	if reductionPct == 0 {
		reductionPct = a.DefaultReductionPct
	}
	reduction := reductionPct / 100

	pesticideKg := in.PesticideLbs * KgPerLb
	reducedKg := pesticideKg * reduction
	co2Tonnes := reducedKg * a.CO2PerKgPesticide / 1000
	waterLiters := reducedKg * a.WaterLitersPerKg

	costPerKg := in.CostPerKg
	if costPerKg == 0 {
		costPerKg = a.CostPerKg
	}
	var cost float64
	if in.PesticideCostYear != 0 && in.PesticideLbs > 0 {
		cost = in.PesticideCostYear * reduction
	} else {
		cost = reducedKg * costPerKg
	}

	lossReductionPct := math.Min(a.MaxLossReductionPct, in.LossPct*a.LossReductionFactor*reduction)

	var lossTonnes *float64
	if in.ProductionUnit == ProductionUnitKgPerMonth && in.ProductionSize != 0 {
		annualKg := in.ProductionSize * 12
		v := Round(annualKg*(in.LossPct/100)*(lossReductionPct/100)/1000, 3)
		lossTonnes = &v
	}

	formula := fmt.Sprintf(
		"CO2 avoided (t/year) = pesticide_reduced_lbs × 0.453592 kg/lb × %g kgCO2e/kg ÷ 1000",
		a.CO2PerKgPesticide)
	used := a
	used.CostPerKg = costPerKg
	return SustainabilityResult{
		PesticideReducedLbs: Round(reducedKg*LbsPerKg, 2),
		PesticideReducedKg:  Round(reducedKg, 2),
		PesticideReducedPct: Round(reduction*100, 1),
		CO2AvoidedTonnes:    Round(co2Tonnes, 3),
		CO2Formula:          formula,
		WaterSavedLiters:    math.Round(waterLiters),
		CostSavings:         Round(cost, 2),
		LossReductionPct:    Round(lossReductionPct, 2),
		LossTonnesAvoided:   lossTonnes,
		Assumptions:         used,
	}
}
