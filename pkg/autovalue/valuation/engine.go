// Package valuation computes the market value range of a vehicle.
package valuation

import (
	"math"
	"time"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/pricing"
)

const (
	// MinimumValue is the floor for any computed value.
	MinimumValue = 150_000

	// MaximumValue caps any computed value so the band stays within int64.
	MaximumValue = 1_000_000_000_000_000

	// DefaultAge is used when the model year is unknown.
	DefaultAge = 5

	averageAnnualMileage = 15_000
	bandWidth            = 0.1
)

var conditionMultipliers = map[dal.Condition]float64{
	dal.ConditionExcellent: 1.15,
	dal.ConditionGood:      1.0,
	dal.ConditionFair:      0.85,
	dal.ConditionPoor:      0.65,
}

// Engine prices vehicles against the settings of a pricing.Provider.
type Engine struct {
	settings pricing.Provider
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to derive the current year.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an Engine reading settings from p.
func NewEngine(p pricing.Provider, opts ...Option) *Engine {
	e := &Engine{settings: p, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CalculateValue returns the estimated value range of v. It never fails;
// unknown brands and conditions fall back to a multiplier of 1.0.
func (e *Engine) CalculateValue(v dal.VehicleAttributes) dal.ValuationResult {
	settings := e.settings.Get()

	premium := IsPremiumBrand(v.Brand)
	basePrice := settings.BasePrice * BrandMultiplier(v.Brand)
	if premium {
		basePrice *= settings.PremiumBrandMultiplier
	}

	currentYear := e.now().Year()
	year := currentYear - DefaultAge
	if v.Year != nil {
		year = *v.Year
	}
	age := currentYear - year
	if age < 0 {
		age = 0
	}

	value := basePrice * math.Pow(settings.DepreciationRate, float64(age))

	if v.Mileage != nil {
		expected := age * averageAnnualMileage
		excess := *v.Mileage - expected
		if excess > 0 {
			value -= float64(excess) * (settings.MileagePenalty / 1000)
		}
	}

	multiplier, ok := conditionMultipliers[v.Condition]
	if !ok {
		multiplier = 1.0
	}
	value *= multiplier

	// NaN compares false, so it is replaced by the floor too
	if !(value >= MinimumValue) {
		value = MinimumValue
	}
	if value > MaximumValue {
		value = MaximumValue
	}

	return dal.ValuationResult{
		EstimatedValueMin: int64(math.Round(value * (1 - bandWidth))),
		EstimatedValueMax: int64(math.Round(value * (1 + bandWidth))),
		AverageValue:      int64(math.Round(value)),
		IsPremiumBrand:    premium,
		DepreciationYears: age,
	}
}

// ConditionFromDamage infers a vehicle condition from the overall damage
// severity and total repair cost of an assessment.
func ConditionFromDamage(severity dal.Severity, totalRepairCost int64) dal.Condition {
	switch {
	case severity == dal.SeveritySevere || totalRepairCost > 300_000:
		return dal.ConditionPoor
	case severity == dal.SeverityModerate || totalRepairCost > 100_000:
		return dal.ConditionFair
	case totalRepairCost > 30_000:
		return dal.ConditionGood
	default:
		return dal.ConditionExcellent
	}
}
