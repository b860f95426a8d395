// Package decision routes a sanitized damage list to auto-approval, human
// review or escalation.
package decision

import (
	"fmt"
	"strings"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

// Rule names the branch of the policy that produced a decision.
type Rule string

const (
	RuleHint            Rule = "hint"
	RuleAutoApproveBand Rule = "auto_approve_band"
	RuleEscalation      Rule = "escalation"
	RuleReviewBand      Rule = "review_band"
)

// Policy holds the triage thresholds, in rubles.
type Policy struct {
	// AutoApproveBelow: all-minor damage strictly below this total is approved.
	AutoApproveBelow int64 `mapstructure:"auto_approve_below"`
	// EscalateAbove: totals strictly above this are escalated.
	EscalateAbove int64 `mapstructure:"escalate_above"`
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{AutoApproveBelow: 180_000, EscalateAbove: 630_000}
}

// Outcome is the result of Decide.
type Outcome struct {
	Decision  dal.Decision `json:"decision"`
	TotalCost int64        `json:"totalCost"`
	Rule      Rule         `json:"rule"`
	Rationale string       `json:"rationale"`
}

// TotalCost sums the item costs.
func TotalCost(items []dal.DamageItem) int64 {
	var total int64
	for _, it := range items {
		total += it.EstimatedCost
	}
	return total
}

// Decide picks the triage decision for items. A syntactically valid hint from
// the upstream classifier is honored as-is; otherwise the decision is derived
// from the total cost and item severities.
func (p Policy) Decide(items []dal.DamageItem, hint string) Outcome {
	total := TotalCost(items)

	if d := dal.Decision(hint); d.Valid() {
		return Outcome{Decision: d, TotalCost: total, Rule: RuleHint}
	}

	allMinor, anySevere := true, false
	for _, it := range items {
		if it.Severity != dal.SeverityMinor {
			allMinor = false
		}
		if it.Severity == dal.SeveritySevere {
			anySevere = true
		}
	}

	switch {
	case total < p.AutoApproveBelow && allMinor:
		return Outcome{
			Decision:  dal.DecisionAutoApprove,
			TotalCost: total,
			Rule:      RuleAutoApproveBand,
			Rationale: fmt.Sprintf("Только незначительные повреждения, стоимость ремонта %d ₽ ниже порога %d ₽", total, p.AutoApproveBelow),
		}
	case total > p.EscalateAbove || anySevere:
		var why []string
		if total > p.EscalateAbove {
			why = append(why, fmt.Sprintf("стоимость ремонта %d ₽ превышает порог %d ₽", total, p.EscalateAbove))
		}
		if anySevere {
			why = append(why, "обнаружены серьёзные повреждения")
		}
		return Outcome{
			Decision:  dal.DecisionEscalate,
			TotalCost: total,
			Rule:      RuleEscalation,
			Rationale: "Требуется эскалация: " + strings.Join(why, "; "),
		}
	default:
		return Outcome{
			Decision:  dal.DecisionHumanReview,
			TotalCost: total,
			Rule:      RuleReviewBand,
			Rationale: fmt.Sprintf("Стоимость ремонта %d ₽ требует ручной проверки", total),
		}
	}
}

// OverallSeverity returns hint when it is a valid severity, otherwise the
// worst severity among items. An empty list is minor.
func OverallSeverity(items []dal.DamageItem, hint string) dal.Severity {
	if s := dal.Severity(hint); s.Valid() {
		return s
	}
	worst := dal.SeverityMinor
	for _, it := range items {
		switch it.Severity {
		case dal.SeveritySevere:
			return dal.SeveritySevere
		case dal.SeverityModerate:
			worst = dal.SeverityModerate
		}
	}
	return worst
}
