// Package ratio relates the repair cost of an assessment to the market value
// of the vehicle.
package ratio

import (
	"math"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

// Compose attaches the repair-to-value ratio to a valuation. The ratio is a
// rounded percentage, 0 when the average value is not positive.
func Compose(totalRepairCost int64, v dal.ValuationResult) dal.VehicleValuation {
	return dal.VehicleValuation{
		EstimatedValueMin:  v.EstimatedValueMin,
		EstimatedValueMax:  v.EstimatedValueMax,
		AverageValue:       v.AverageValue,
		IsPremiumBrand:     v.IsPremiumBrand,
		RepairToValueRatio: RepairToValue(totalRepairCost, v.AverageValue),
	}
}

// RepairToValue returns round(cost / value * 100), or 0 if value <= 0.
func RepairToValue(cost, value int64) int64 {
	if value <= 0 {
		return 0
	}
	return int64(math.Round(float64(cost) / float64(value) * 100))
}

// Tier is a qualitative repair recommendation.
type Tier string

const (
	TierRepairWorthwhile Tier = "repair_worthwhile"
	TierRepairJustified  Tier = "repair_justified"
	TierNeedsEvaluation  Tier = "needs_evaluation"
	TierRepairNotViable  Tier = "repair_not_viable"
)

// Recommendation is the user-facing reading of a repair-to-value ratio.
type Recommendation struct {
	Tier        Tier   `json:"tier" yaml:"tier"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

var bands = []struct {
	upTo int64
	rec  Recommendation
}{
	{10, Recommendation{TierRepairWorthwhile, "Ремонт выгоден", "Стоимость ремонта незначительна относительно цены автомобиля"}},
	{30, Recommendation{TierRepairJustified, "Ремонт оправдан", "Стоимость ремонта приемлема для данного автомобиля"}},
	{50, Recommendation{TierNeedsEvaluation, "Требует оценки", "Высокая стоимость ремонта - рекомендуется получить альтернативные предложения"}},
}

var notViable = Recommendation{TierRepairNotViable, "Ремонт нецелесообразен", "Стоимость ремонта превышает разумный порог - рассмотрите продажу"}

// Recommend buckets a ratio into <=10, <=30, <=50 and >50 percent.
func Recommend(ratio int64) Recommendation {
	for _, b := range bands {
		if ratio <= b.upTo {
			return b.rec
		}
	}
	return notViable
}
