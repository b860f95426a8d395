package dal

// DamageType is a kind of damage the vision model can report.
type DamageType string

const (
	DamageDent         DamageType = "dent"
	DamageScratch      DamageType = "scratch"
	DamageCrack        DamageType = "crack"
	DamageBrokenLight  DamageType = "broken_light"
	DamageBrokenMirror DamageType = "broken_mirror"
	DamageBrokenWindow DamageType = "broken_window"
	DamagePaint        DamageType = "paint_damage"
	DamageRust         DamageType = "rust"
	DamageBumper       DamageType = "bumper_damage"
	DamageStructural   DamageType = "structural_damage"
)

// DamageTypes lists every known damage type.
var DamageTypes = []DamageType{
	DamageDent, DamageScratch, DamageCrack, DamageBrokenLight, DamageBrokenMirror,
	DamageBrokenWindow, DamagePaint, DamageRust, DamageBumper, DamageStructural,
}

// Valid reports whether t is one of the known damage types.
func (t DamageType) Valid() bool {
	for _, v := range DamageTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Severity grades a single damage item or a whole assessment.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Valid reports whether s is minor, moderate or severe.
func (s Severity) Valid() bool {
	return s == SeverityMinor || s == SeverityModerate || s == SeveritySevere
}

// Decision routes an assessment to automated or human handling.
type Decision string

const (
	DecisionAutoApprove Decision = "auto_approve"
	DecisionHumanReview Decision = "human_review"
	DecisionEscalate    Decision = "escalate"
)

// Valid reports whether d is one of the three triage outcomes.
func (d Decision) Valid() bool {
	return d == DecisionAutoApprove || d == DecisionHumanReview || d == DecisionEscalate
}

// DamageItem is a single sanitized damage finding.
type DamageItem struct {
	Type          DamageType `json:"type" yaml:"type"`
	Severity      Severity   `json:"severity" yaml:"severity"`
	Location      string     `json:"location" yaml:"location"`
	Description   string     `json:"description" yaml:"description"`
	EstimatedCost int64      `json:"estimatedCost" yaml:"estimatedCost"`
	Confidence    int        `json:"confidence" yaml:"confidence"`
}

// AssessmentResult is the sanitized, decided damage report.
type AssessmentResult struct {
	Damages               []DamageItem      `json:"damages" yaml:"damages"`
	TotalEstimatedCost    int64             `json:"totalEstimatedCost" yaml:"totalEstimatedCost"`
	OverallSeverity       Severity          `json:"overallSeverity" yaml:"overallSeverity"`
	Decision              Decision          `json:"decision" yaml:"decision"`
	DecisionReason        string            `json:"decisionReason" yaml:"decisionReason"`
	RepairRecommendations []string          `json:"repairRecommendations" yaml:"repairRecommendations"`
	VehicleInfo           *VehicleInfo      `json:"vehicleInfo,omitempty" yaml:"vehicleInfo,omitempty"`
	VehicleValuation      *VehicleValuation `json:"vehicleValuation,omitempty" yaml:"vehicleValuation,omitempty"`
}
