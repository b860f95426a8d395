package dal

import "time"

// AssessmentStatus tracks an analysis through its lifecycle.
type AssessmentStatus string

const (
	StatusPending   AssessmentStatus = "pending"
	StatusCompleted AssessmentStatus = "completed"
	StatusError     AssessmentStatus = "error"
)

// Assessment is a stored damage assessment.
type Assessment struct {
	ID                  int64             `json:"id"`
	ImageCount          int               `json:"imageCount"`
	Status              AssessmentStatus  `json:"status"`
	Result              *AssessmentResult `json:"result"`
	HumanOverride       *Decision         `json:"humanOverride"`
	HumanOverrideReason *string           `json:"humanOverrideReason"`
	CreatedAt           time.Time         `json:"createdAt"`
}

// ContactInfo is who asked for a valuation.
type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Valuation is a stored standalone valuation.
type Valuation struct {
	ID             int64             `json:"id"`
	VehicleDetails VehicleAttributes `json:"vehicleDetails"`
	ContactInfo    *ContactInfo      `json:"contactInfo,omitempty"`
	Valuation      *VehicleValuation `json:"valuation"`
	CreatedAt      time.Time         `json:"createdAt"`
}
