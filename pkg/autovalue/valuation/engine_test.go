package valuation

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/pricing"
)

const currentYear = 2026

func fixedClock() time.Time {
	return time.Date(currentYear, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func intp(v int) *int { return &v }

func newTestEngine() *Engine {
	return NewEngine(pricing.NewStore(pricing.DefaultSettings()), WithClock(fixedClock))
}

func TestCalculateValue(t *testing.T) {
	tests := []struct {
		name     string
		input    dal.VehicleAttributes
		expected dal.ValuationResult
	}{
		{
			name:  "PremiumBrandNewGood",
			input: dal.VehicleAttributes{Brand: "BMW", Model: "X5", Year: intp(currentYear), Condition: dal.ConditionGood},
			expected: dal.ValuationResult{
				EstimatedValueMin: 4_725_000,
				EstimatedValueMax: 5_775_000,
				AverageValue:      5_250_000,
				IsPremiumBrand:    true,
				DepreciationYears: 0,
			},
		},
		{
			name:  "UnmatchedBrandVariantFallsBackToOne",
			input: dal.VehicleAttributes{Brand: "LADA (ВАЗ)", Year: intp(currentYear), Condition: dal.ConditionGood},
			expected: dal.ValuationResult{
				EstimatedValueMin: 1_800_000,
				EstimatedValueMax: 2_200_000,
				AverageValue:      2_000_000,
			},
		},
		{
			name:  "EconomyBrandExactMatch",
			input: dal.VehicleAttributes{Brand: "  Lada ", Year: intp(currentYear), Condition: dal.ConditionGood},
			expected: dal.ValuationResult{
				EstimatedValueMin: 1_080_000,
				EstimatedValueMax: 1_320_000,
				AverageValue:      1_200_000,
			},
		},
		{
			name:  "FutureYearClampsAgeToZero",
			input: dal.VehicleAttributes{Brand: "unknown", Year: intp(currentYear + 1), Condition: dal.ConditionExcellent},
			expected: dal.ValuationResult{
				EstimatedValueMin: 2_070_000,
				EstimatedValueMax: 2_530_000,
				AverageValue:      2_300_000,
			},
		},
		{
			name:  "OldPoorCarHitsFloor",
			input: dal.VehicleAttributes{Brand: "lada", Year: intp(currentYear - 40), Condition: dal.ConditionPoor},
			expected: dal.ValuationResult{
				EstimatedValueMin: 135_000,
				EstimatedValueMax: 165_000,
				AverageValue:      150_000,
				DepreciationYears: 40,
			},
		},
		{
			name:  "UnknownConditionIsNeutral",
			input: dal.VehicleAttributes{Brand: "unknown", Year: intp(currentYear), Condition: "mint"},
			expected: dal.ValuationResult{
				EstimatedValueMin: 1_800_000,
				EstimatedValueMax: 2_200_000,
				AverageValue:      2_000_000,
			},
		},
	}

	engine := newTestEngine()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, engine.CalculateValue(tc.input))
		})
	}
}

func TestCalculateValueDefaultsAgeToFiveYears(t *testing.T) {
	got := newTestEngine().CalculateValue(dal.VehicleAttributes{Brand: "kia", Condition: dal.ConditionGood})
	assert.Equal(t, DefaultAge, got.DepreciationYears)
}

func TestCalculateValueMileagePenalty(t *testing.T) {
	engine := newTestEngine()
	base := dal.VehicleAttributes{Brand: "toyota", Year: intp(currentYear - 2), Condition: dal.ConditionGood}

	noMileage := engine.CalculateValue(base)

	withinExpected := base
	withinExpected.Mileage = intp(10_000)
	assert.Equal(t, noMileage, engine.CalculateValue(withinExpected), "mileage below expectation is not discounted")

	excess := base
	excess.Mileage = intp(50_000)
	got := engine.CalculateValue(excess)
	// 20,000 km over the expected 30,000 at 2,000 per 1,000 km
	assert.Equal(t, noMileage.AverageValue-40_000, got.AverageValue)
}

func TestCalculateValueReadsCurrentSettings(t *testing.T) {
	store := pricing.NewStore(pricing.DefaultSettings())
	engine := NewEngine(store, WithClock(fixedClock))
	input := dal.VehicleAttributes{Brand: "unknown", Year: intp(currentYear), Condition: dal.ConditionGood}

	before := engine.CalculateValue(input)
	price := 4_000_000.0
	store.Update(dal.PricingPatch{BasePrice: &price})
	after := engine.CalculateValue(input)

	assert.Equal(t, int64(2_000_000), before.AverageValue)
	assert.Equal(t, int64(4_000_000), after.AverageValue)
}

func TestCalculateValueCapsHugeSettings(t *testing.T) {
	settings := pricing.DefaultSettings()
	settings.BasePrice = 1e18
	engine := NewEngine(pricing.NewStore(settings), WithClock(fixedClock))

	got := engine.CalculateValue(dal.VehicleAttributes{Brand: "Ferrari", Year: intp(currentYear), Condition: dal.ConditionExcellent})

	assert.Equal(t, int64(MaximumValue), got.AverageValue)
	assert.Equal(t, int64(MaximumValue*0.9), got.EstimatedValueMin)
	assert.Equal(t, int64(MaximumValue*1.1), got.EstimatedValueMax)
}

func TestConditionFromDamage(t *testing.T) {
	tests := []struct {
		severity dal.Severity
		cost     int64
		expected dal.Condition
	}{
		{dal.SeveritySevere, 0, dal.ConditionPoor},
		{dal.SeverityMinor, 300_001, dal.ConditionPoor},
		{dal.SeverityModerate, 0, dal.ConditionFair},
		{dal.SeverityMinor, 100_001, dal.ConditionFair},
		{dal.SeverityMinor, 300_000, dal.ConditionFair},
		{dal.SeverityMinor, 30_001, dal.ConditionGood},
		{dal.SeverityMinor, 30_000, dal.ConditionExcellent},
		{dal.SeverityMinor, 0, dal.ConditionExcellent},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, ConditionFromDamage(tc.severity, tc.cost), "%s/%d", tc.severity, tc.cost)
	}
}

func TestCalculateValueProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	brands := gen.OneConstOf("BMW", "Lada", "LADA (ВАЗ)", "toyota", "Ferrari", "Rolls-Royce", "", "Tesla")
	conditions := gen.OneConstOf(dal.ConditionExcellent, dal.ConditionGood, dal.ConditionFair, dal.ConditionPoor)

	properties.Property("value band is ordered and above the floor", prop.ForAll(
		func(brand string, year, mileage int, condition dal.Condition, base, premium, rate, penalty float64) bool {
			store := pricing.NewStore(dal.PricingSettings{
				BasePrice:              base,
				PremiumBrandMultiplier: premium,
				DepreciationRate:       rate,
				MileagePenalty:         penalty,
			})
			engine := NewEngine(store, WithClock(fixedClock))
			input := dal.VehicleAttributes{Brand: brand, Year: &year, Mileage: &mileage, Condition: condition}

			first := engine.CalculateValue(input)
			second := engine.CalculateValue(input)

			return first == second &&
				first.EstimatedValueMin <= first.AverageValue &&
				first.AverageValue <= first.EstimatedValueMax &&
				first.AverageValue >= MinimumValue &&
				first.DepreciationYears >= 0
		},
		brands,
		gen.IntRange(1950, currentYear+2),
		gen.IntRange(0, 1_000_000),
		conditions,
		gen.Float64Range(0, 1e19),
		gen.Float64Range(0.01, 10),
		gen.Float64Range(0.01, 1),
		gen.Float64Range(0, 10_000),
	))

	properties.TestingRun(t)
}
