// Package assessment chains sanitizing, triage and valuation into a single
// AssessmentResult for a raw vision-model payload.
package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/damage"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/decision"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/ratio"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/valuation"
)

const (
	defaultReason      = "Оценка выполнена на основе обнаруженных повреждений"
	defaultMultiReason = "Оценка выполнена на основе анализа нескольких изображений"
)

// Recorder receives assessment counters. metrics.Metrics implements it.
type Recorder interface {
	ObserveAssessment(d dal.Decision, rule string)
	ObserveRepair(field string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAssessment(dal.Decision, string) {}
func (nopRecorder) ObserveRepair(string)                   {}

// Service turns raw payloads into assessments.
type Service struct {
	engine   *valuation.Engine
	policy   decision.Policy
	log      *zap.Logger
	recorder Recorder
}

// NewService returns a Service. A nil recorder disables counters.
func NewService(engine *valuation.Engine, policy decision.Policy, log *zap.Logger, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{engine: engine, policy: policy, log: log, recorder: rec}
}

// Assess decodes raw as JSON and assesses it. Only bytes that are not JSON at
// all are rejected; any JSON value is repaired into a result.
func (s *Service) Assess(raw []byte, imageCount int) (dal.AssessmentResult, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return dal.AssessmentResult{}, fmt.Errorf("decode assessment payload: %w", err)
	}
	payload, ok := v.(map[string]any)
	if !ok {
		s.log.Warn("assessment payload is not an object", zap.String("kind", fmt.Sprintf("%T", v)))
	}
	return s.AssessPayload(payload, imageCount), nil
}

// AssessPayload builds an AssessmentResult from an already decoded payload.
func (s *Service) AssessPayload(payload map[string]any, imageCount int) dal.AssessmentResult {
	rawDamages, _ := payload["damages"].([]any)
	items, repairs := damage.SanitizeWithReport(rawDamages)
	for _, r := range repairs {
		s.log.Warn("repaired damage item field",
			zap.Int("index", r.Index),
			zap.String("field", r.Field),
			zap.String("reason", r.Reason),
		)
		s.recorder.ObserveRepair(r.Field)
	}

	hint, _ := payload["decision"].(string)
	outcome := s.policy.Decide(items, hint)
	severityHint, _ := payload["overallSeverity"].(string)

	result := dal.AssessmentResult{
		Damages:               items,
		TotalEstimatedCost:    outcome.TotalCost,
		OverallSeverity:       decision.OverallSeverity(items, severityHint),
		Decision:              outcome.Decision,
		DecisionReason:        s.reason(payload["decisionReason"], outcome, imageCount),
		RepairRecommendations: stringList(payload["repairRecommendations"]),
		VehicleInfo:           vehicleInfo(payload["vehicleInfo"]),
	}
	if len(items) == 0 {
		result.TotalEstimatedCost = suppliedTotal(payload["totalEstimatedCost"])
	}

	if result.VehicleInfo != nil && result.VehicleInfo.Make != "" {
		condition := valuation.ConditionFromDamage(result.OverallSeverity, result.TotalEstimatedCost)
		v := s.engine.CalculateValue(dal.VehicleAttributes{
			Brand:     result.VehicleInfo.Make,
			Model:     result.VehicleInfo.Model,
			Year:      ParseYear(result.VehicleInfo.Year),
			Condition: condition,
		})
		summary := ratio.Compose(result.TotalEstimatedCost, v)
		result.VehicleValuation = &summary
	}

	s.recorder.ObserveAssessment(result.Decision, string(outcome.Rule))
	s.log.Info("assessment completed",
		zap.Int("items", len(items)),
		zap.Int("repairs", len(repairs)),
		zap.Int64("total_cost", result.TotalEstimatedCost),
		zap.String("decision", string(result.Decision)),
		zap.String("rule", string(outcome.Rule)),
	)
	return result
}

func (s *Service) reason(v any, outcome decision.Outcome, imageCount int) string {
	if r, ok := v.(string); ok && strings.TrimSpace(r) != "" {
		return r
	}
	if outcome.Rule != decision.RuleHint {
		return outcome.Rationale
	}
	if imageCount > 1 {
		return defaultMultiReason
	}
	return defaultReason
}

// suppliedTotal is only consulted for an empty damage list.
func suppliedTotal(v any) int64 {
	f, ok := damage.ParseNumber(v)
	if !ok || f <= 0 {
		return 0
	}
	return int64(math.Round(math.Min(f, damage.MaximumCost)))
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := scalarString(e); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func vehicleInfo(v any) *dal.VehicleInfo {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	field := func(key string) string {
		s, _ := scalarString(m[key])
		return strings.TrimSpace(s)
	}
	return &dal.VehicleInfo{
		Make:  field("make"),
		Model: field("model"),
		Year:  field("year"),
		Color: field("color"),
	}
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

// ParseYear reads the leading integer of s ("2022 г." is 2022). It returns
// nil when there is none or it is zero, which leaves the default age in effect.
func ParseYear(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	year, err := strconv.Atoi(s[:end])
	if err != nil || year == 0 {
		return nil
	}
	return &year
}
