package domain

// Mass conversions. Usage data is recorded in kilograms; operators think in pounds.
const (
	KgPerLb  = 0.45359237
	LbsPerKg = 2.20462
)
