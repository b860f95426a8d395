// Package damage turns the free-form damage list produced by the vision model
// into well-formed dal.DamageItem values.
//
// Sanitizing never fails. Each field is decoded on its own; a field that does
// not decode is replaced by its default and the rest of the item is kept.
package damage

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

const (
	// MinimumCost is the lowest repair cost of any damage item, in rubles.
	MinimumCost = 2000

	// MaximumCost caps a single item so totals stay within int64.
	MaximumCost = 1_000_000_000_000

	// thousandsCutoff: positive costs below it are taken to be in thousands.
	thousandsCutoff = 1000

	DefaultType        = dal.DamageScratch
	DefaultSeverity    = dal.SeverityModerate
	DefaultConfidence  = 50
	DefaultLocation    = "unknown location"
	DefaultDescription = "damage detected"
)

// Repair records one field that was replaced or corrected.
type Repair struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Sanitize repairs every raw record into a DamageItem, preserving order.
func Sanitize(raw []any) []dal.DamageItem {
	items, _ := SanitizeWithReport(raw)
	return items
}

// SanitizeWithReport is Sanitize plus the list of repairs that were applied.
func SanitizeWithReport(raw []any) ([]dal.DamageItem, []Repair) {
	items := make([]dal.DamageItem, 0, len(raw))
	var repairs []Repair
	for i, r := range raw {
		item, fixes := SanitizeItem(r)
		for _, f := range fixes {
			f.Index = i
			repairs = append(repairs, f)
		}
		items = append(items, item)
	}
	return items, repairs
}

// SanitizeItem repairs a single raw record. Anything that is not a JSON
// object is treated as an object with no fields.
func SanitizeItem(raw any) (dal.DamageItem, []Repair) {
	fields, _ := raw.(map[string]any)

	var repairs []Repair
	note := func(field, reason string) {
		repairs = append(repairs, Repair{Field: field, Reason: reason})
	}

	var item dal.DamageItem
	var reason string

	if item.Type, reason = SanitizeType(fields["type"]); reason != "" {
		note("type", reason)
	}
	if item.Severity, reason = SanitizeSeverity(fields["severity"]); reason != "" {
		note("severity", reason)
	}
	if item.Location, reason = SanitizeText(fields["location"], DefaultLocation); reason != "" {
		note("location", reason)
	}
	if item.Description, reason = SanitizeText(fields["description"], DefaultDescription); reason != "" {
		note("description", reason)
	}
	if item.EstimatedCost, reason = SanitizeCost(fields["estimatedCost"]); reason != "" {
		note("estimatedCost", reason)
	}
	if item.Confidence, reason = SanitizeConfidence(fields["confidence"]); reason != "" {
		note("confidence", reason)
	}
	return item, repairs
}

// SanitizeType returns v as a known damage type, or scratch.
// The second result is empty when no repair was needed.
func SanitizeType(v any) (dal.DamageType, string) {
	s, _ := v.(string)
	if t := dal.DamageType(s); t.Valid() {
		return t, ""
	}
	return DefaultType, "unknown type"
}

// SanitizeSeverity returns v as a known severity, or moderate.
func SanitizeSeverity(v any) (dal.Severity, string) {
	s, _ := v.(string)
	if sev := dal.Severity(s); sev.Valid() {
		return sev, ""
	}
	return DefaultSeverity, "unknown severity"
}

// SanitizeText returns v trimmed, or placeholder when v is not a non-blank string.
func SanitizeText(v any, placeholder string) (string, string) {
	s, ok := v.(string)
	if !ok {
		return placeholder, "not a string"
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return placeholder, "empty"
	}
	return s, ""
}

// SanitizeCost coerces v to a whole-ruble repair cost. Positive amounts below
// 1000 are read as thousands of rubles; the result is never below MinimumCost.
func SanitizeCost(v any) (int64, string) {
	cost, ok := ParseNumber(v)
	reason := ""
	if !ok {
		cost = 0
		reason = "unparseable"
	}
	if cost > 0 && cost < thousandsCutoff {
		cost *= 1000
		reason = "unit corrected"
	}
	if cost < MinimumCost {
		cost = MinimumCost
		if reason == "" {
			reason = "below minimum"
		}
	}
	if cost > MaximumCost {
		cost = MaximumCost
		reason = "above maximum"
	}
	return int64(math.Round(cost)), reason
}

// SanitizeConfidence coerces v to an integer percentage in [0, 100], or 50.
func SanitizeConfidence(v any) (int, string) {
	c, ok := ParseNumber(v)
	if !ok {
		return DefaultConfidence, "unparseable"
	}
	reason := ""
	if c < 0 {
		c, reason = 0, "out of range"
	}
	if c > 100 {
		c, reason = 100, "out of range"
	}
	return int(math.Round(c)), reason
}

// ParseNumber accepts JSON numbers and numeric strings. Non-finite values do not count.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
