package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveValuation(dal.ValuationResult{IsPremiumBrand: true})
	m.ObserveAssessment(dal.DecisionEscalate, "escalation")
	m.ObserveAssessment(dal.DecisionEscalate, "escalation")
	m.ObserveRepair("estimatedCost")
	m.ObserveVision(errors.New("timeout"), time.Second)
	m.ObserveHTTP(http.MethodGet, "/api/valuations", 200, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValuationsTotal.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AssessmentsTotal.WithLabelValues("escalate", "escalation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SanitizerRepairsTotal.WithLabelValues("estimatedCost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisionRequestsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/valuations", "200")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveRepair("type")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `autovalue_sanitizer_repairs_total{field="type"} 1`)
}
