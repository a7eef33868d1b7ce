// Package impact holds the demonstration sustainability models: per-operation
// savings, the ESG impact report and the regional scenario series. Every model
// is a pure function of its inputs and an Assumptions set.
package impact

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/couchcryptid/sterileloop/internal/domain"
	"gopkg.in/yaml.v3"
)

// Unit conversions.
const (
	KgPerLb  = domain.KgPerLb
	LbsPerKg = domain.LbsPerKg
)

// Assumptions are the emission factors and placeholder constants behind every
// model. The defaults are illustrative, not sourced measurements.
type Assumptions struct {
	CO2PerKgPesticide    float64 `yaml:"co2_per_kg_pesticide" json:"ef_co2_per_kg"` // kg CO2e per kg pesticide
	WaterLitersPerKg     float64 `yaml:"water_liters_per_kg" json:"water_per_kg"`   // liters per kg pesticide avoided
	CostPerKg            float64 `yaml:"cost_per_kg" json:"cost_per_kg"`            // USD per kg when no cost is supplied
	DefaultReductionPct  float64 `yaml:"default_reduction_pct" json:"-"`            // used when no reduction is supplied
	LossReductionFactor  float64 `yaml:"loss_reduction_factor" json:"-"`            // share of loss addressed per unit reduction
	MaxLossReductionPct  float64 `yaml:"max_loss_reduction_pct" json:"-"`           // cap on food-loss reduction
	GHGPerLbPesticideKg  float64 `yaml:"ghg_per_lb_pesticide_kg" json:"-"`          // kg CO2e per lb pesticide (ESG)
	GHGPerTonFood        float64 `yaml:"ghg_per_ton_food" json:"-"`                 // t CO2e per ton food saved
	CarTonsPerYear       float64 `yaml:"car_tons_per_year" json:"-"`                // t CO2e per passenger car per year
	SprayCyclesAvoided   float64 `yaml:"spray_cycles_avoided" json:"-"`             // spray cycles avoided per acre
	GallonsPerSprayAcre  float64 `yaml:"gallons_per_spray_acre" json:"-"`           // water per spray cycle per acre
	BaselineFoodLossFrac float64 `yaml:"baseline_food_loss_fraction" json:"-"`      // post-harvest loss before irradiation
	AnnualTrend          float64 `yaml:"annual_trend" json:"-"`                     // scenario baseline growth per year
}

// DefaultAssumptions returns the built-in constants.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		CO2PerKgPesticide:    1.6,
		WaterLitersPerKg:     10,
		CostPerKg:            10,
		DefaultReductionPct:  50,
		LossReductionFactor:  0.2,
		MaxLossReductionPct:  25,
		GHGPerLbPesticideKg:  5,
		GHGPerTonFood:        2.5,
		CarTonsPerYear:       4.6,
		SprayCyclesAvoided:   3,
		GallonsPerSprayAcre:  200,
		BaselineFoodLossFrac: 0.10,
		AnnualTrend:          0.01,
	}
}

// LoadAssumptions reads overrides from a YAML file on top of the defaults.
// An empty path or a missing file yields the defaults.
func LoadAssumptions(path string) (Assumptions, error) {
	a := DefaultAssumptions()
	if path == "" {
		return a, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return a, nil
	}
	if err != nil {
		return a, fmt.Errorf("read assumptions: %w", err)
	}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("parse assumptions: %w", err)
	}
	if err := a.validate(); err != nil {
		return a, err
	}
	return a, nil
}

func (a Assumptions) validate() error {
	if a.CarTonsPerYear <= 0 {
		return errors.New("car_tons_per_year must be positive")
	}
	if a.MaxLossReductionPct < 0 || a.DefaultReductionPct < 0 {
		return errors.New("percentages must not be negative")
	}
	return nil
}

// Round rounds n to dec decimal places, half away from zero.
func Round(n float64, dec int) float64 {
	p := math.Pow(10, float64(dec))
	return math.Round(n*p) / p
}
