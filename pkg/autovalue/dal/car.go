package dal

// Condition is the owner-reported or damage-inferred state of a vehicle.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// Conditions lists every accepted condition value.
var Conditions = []Condition{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor}

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	for _, v := range Conditions {
		if c == v {
			return true
		}
	}
	return false
}

// VehicleAttributes defines the inputs of a valuation.
// Year and Mileage are optional; nil means "not supplied".
type VehicleAttributes struct {
	Brand     string    `json:"brand" yaml:"brand"`
	Model     string    `json:"model,omitempty" yaml:"model,omitempty"`
	Year      *int      `json:"year,omitempty" yaml:"year,omitempty"`
	Mileage   *int      `json:"mileage,omitempty" yaml:"mileage,omitempty"`
	Condition Condition `json:"condition" yaml:"condition"`
}

// ValuationResult defines the market value range produced by the valuation engine
type ValuationResult struct {
	EstimatedValueMin int64 `json:"estimatedValueMin" yaml:"estimatedValueMin"`
	EstimatedValueMax int64 `json:"estimatedValueMax" yaml:"estimatedValueMax"`
	AverageValue      int64 `json:"averageValue" yaml:"averageValue"`
	IsPremiumBrand    bool  `json:"isPremiumBrand" yaml:"isPremiumBrand"`
	DepreciationYears int   `json:"depreciationYears" yaml:"depreciationYears"`
}

// VehicleValuation is the valuation summary attached to an assessment.
type VehicleValuation struct {
	EstimatedValueMin  int64 `json:"estimatedValueMin" yaml:"estimatedValueMin"`
	EstimatedValueMax  int64 `json:"estimatedValueMax" yaml:"estimatedValueMax"`
	AverageValue       int64 `json:"averageValue" yaml:"averageValue"`
	IsPremiumBrand     bool  `json:"isPremiumBrand" yaml:"isPremiumBrand"`
	RepairToValueRatio int64 `json:"repairToValueRatio" yaml:"repairToValueRatio"`
}

// VehicleInfo is what the vision model recognised about the vehicle. All fields are optional.
type VehicleInfo struct {
	Make  string `json:"make,omitempty" yaml:"make,omitempty"`
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	Year  string `json:"year,omitempty" yaml:"year,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}
