package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/assessment"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/decision"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/metrics"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/pricing"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/ratio"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/store"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/valuation"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/vision"
)

const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

const severeLadaPayload = `{
	"damages": [
		{"type": "structural_damage", "severity": "severe", "location": "рама", "description": "деформация", "estimatedCost": 700000, "confidence": 80}
	],
	"vehicleInfo": {"make": "Lada", "model": "Vesta", "year": "2020"}
}`

func fixedNow() time.Time {
	return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
}

type fakeAnalyzer struct {
	raw    []byte
	err    error
	calls  int
	images []vision.Image
}

func (f *fakeAnalyzer) Analyze(_ context.Context, images []vision.Image) ([]byte, error) {
	f.calls++
	f.images = images
	return f.raw, f.err
}

type testEnv struct {
	ts      *httptest.Server
	metrics *metrics.Metrics
	pricing *pricing.Store
}

func newTestEnv(t *testing.T, analyzer vision.Analyzer, rps float64, burst int) *testEnv {
	t.Helper()

	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	ps := pricing.NewStore(pricing.DefaultSettings())
	engine := valuation.NewEngine(ps, valuation.WithClock(fixedNow))
	deps := Deps{
		Engine:         engine,
		Pricing:        ps,
		Branding:       pricing.NewBrandingStore(pricing.DefaultBranding()),
		Assessor:       assessment.NewService(engine, decision.DefaultPolicy(), zap.NewNop(), m),
		Store:          st,
		Analyzer:       analyzer,
		Metrics:        m,
		Log:            zap.NewNop(),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		Now:            fixedNow,
	}
	r, err := NewRouter(deps)
	require.NoError(t, err)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, metrics: m, pricing: ps}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

type assessmentBody struct {
	dal.Assessment
	Recommendation *ratio.Recommendation `json:"recommendation"`
}

func TestCreateValuation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		status     int
		average    int64
		hasContact bool
	}{
		{
			name:    "Flat",
			body:    `{"brand": "BMW", "model": "X5", "year": 2026, "condition": "good"}`,
			status:  http.StatusOK,
			average: 5_250_000,
		},
		{
			name:       "Nested",
			body:       `{"vehicleDetails": {"brand": "BMW", "model": "X5", "year": 2026, "mileage": 0, "condition": "good"}, "contactInfo": {"name": "Ivan", "phone": "+79990001122"}}`,
			status:     http.StatusOK,
			average:    5_250_000,
			hasContact: true,
		},
		{
			name:   "NestedWithoutContact",
			body:   `{"vehicleDetails": {"brand": "BMW", "model": "X5", "year": 2026, "condition": "good"}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "YearTooOld",
			body:   `{"brand": "BMW", "model": "X5", "year": 1989, "condition": "good"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "YearTooNew",
			body:   `{"brand": "BMW", "model": "X5", "year": 2028, "condition": "good"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "UnknownCondition",
			body:   `{"brand": "BMW", "model": "X5", "year": 2020, "condition": "mint"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "NegativeMileage",
			body:   `{"brand": "BMW", "model": "X5", "year": 2020, "mileage": -1, "condition": "good"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "BlankBrand",
			body:   `{"brand": "   ", "model": "X5", "year": 2020, "condition": "good"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "ShortPhone",
			body:   `{"vehicleDetails": {"brand": "BMW", "model": "X5", "year": 2020, "condition": "good"}, "contactInfo": {"name": "Ivan", "phone": "123"}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "NotJSON",
			body:   `brand=BMW`,
			status: http.StatusBadRequest,
		},
	}

	env := newTestEnv(t, nil, 1, 1)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/valuations", tc.body)
			require.Equal(t, tc.status, resp.StatusCode, string(body))
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			if tc.status != http.StatusOK {
				var errResp errorResponse
				require.NoError(t, json.Unmarshal(body, &errResp))
				assert.NotEmpty(t, errResp.Error)
				return
			}

			var got dal.Valuation
			require.NoError(t, json.Unmarshal(body, &got))
			require.NotNil(t, got.Valuation)
			assert.Equal(t, tc.average, got.Valuation.AverageValue)
			assert.True(t, got.Valuation.IsPremiumBrand)
			assert.Zero(t, got.Valuation.RepairToValueRatio)
			assert.Equal(t, tc.hasContact, got.ContactInfo != nil)
		})
	}

	resp, body := env.do(t, http.MethodGet, "/api/valuations", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dal.Valuation
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Greater(t, list[0].ID, list[1].ID)
}

func TestValidationDetails(t *testing.T) {
	env := newTestEnv(t, nil, 1, 1)

	resp, body := env.do(t, http.MethodPost, "/api/valuations", `{"brand": "BMW", "model": "X5", "year": 2020, "condition": "mint"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "invalid request", errResp.Error)
	require.NotEmpty(t, errResp.Details)
	found := false
	for _, d := range errResp.Details {
		if d.Field == "/condition" {
			found = true
		}
	}
	assert.True(t, found, "details: %+v", errResp.Details)
}

func TestAnalyzeAssessment(t *testing.T) {
	analyzer := &fakeAnalyzer{raw: []byte(severeLadaPayload)}
	env := newTestEnv(t, analyzer, 100, 100)

	resp, body := env.do(t, http.MethodPost, "/api/assessments/analyze", `{"images": ["`+pngDataURL+`", "`+pngDataURL+`"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	assert.Len(t, analyzer.images, 2)
	assert.Equal(t, "image/png", analyzer.images[0].MediaType)

	var got assessmentBody
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 2, got.ImageCount)
	assert.Equal(t, dal.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, dal.DecisionEscalate, got.Result.Decision)
	assert.Equal(t, int64(700_000), got.Result.TotalEstimatedCost)
	require.NotNil(t, got.Result.VehicleValuation)
	require.NotNil(t, got.Recommendation)
	assert.Equal(t, ratio.Recommend(got.Result.VehicleValuation.RepairToValueRatio), *got.Recommendation)

	resp, body = env.do(t, http.MethodGet, "/api/assessments/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched assessmentBody
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, got.Result.Decision, fetched.Result.Decision)
}

func TestAnalyzeLegacyAndFallbackBodies(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		images int
	}{
		{"Legacy", `{"image": "` + pngDataURL + `"}`, http.StatusOK, 1},
		{"EmptyListFallsBackToLegacy", `{"images": [""], "image": "` + pngDataURL + `"}`, http.StatusOK, 1},
		{"EmptyList", `{"images": []}`, http.StatusBadRequest, 0},
		{"Missing", `{}`, http.StatusBadRequest, 0},
		{"NotAnImage", `{"image": "not base64 !!"}`, http.StatusBadRequest, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{raw: []byte(`{"damages": []}`)}
			env := newTestEnv(t, analyzer, 100, 100)

			resp, body := env.do(t, http.MethodPost, "/api/assessments/analyze", tc.body)
			require.Equal(t, tc.status, resp.StatusCode, string(body))
			assert.Len(t, analyzer.images, tc.images)
		})
	}
}

func TestAnalyzeWithoutAnalyzer(t *testing.T) {
	env := newTestEnv(t, nil, 100, 100)

	resp, _ := env.do(t, http.MethodPost, "/api/assessments/analyze", `{"image": "`+pngDataURL+`"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAnalyzeFailureMarksAssessment(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("model overloaded")}
	env := newTestEnv(t, analyzer, 100, 100)

	resp, body := env.do(t, http.MethodPost, "/api/assessments/analyze", `{"image": "`+pngDataURL+`"}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var errResp errorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, analysisFailedMessage, errResp.Error)

	resp, body = env.do(t, http.MethodGet, "/api/assessments/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got assessmentBody
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, dal.StatusError, got.Status)
	assert.Nil(t, got.Result)
}

func TestAnalyzeRateLimited(t *testing.T) {
	analyzer := &fakeAnalyzer{raw: []byte(`{"damages": []}`)}
	env := newTestEnv(t, analyzer, 0.001, 1)

	resp, _ := env.do(t, http.MethodPost, "/api/assessments/analyze", `{"image": "`+pngDataURL+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/assessments/analyze", `{"image": "`+pngDataURL+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, 1, analyzer.calls)

	resp, _ = env.do(t, http.MethodGet, "/api/assessments", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "other routes are not limited")
}

func TestCreateAssessmentFromPayload(t *testing.T) {
	env := newTestEnv(t, nil, 1, 1)

	resp, body := env.do(t, http.MethodPost, "/api/assessments?imageCount=3", `{
		"damages": [{"type": "dent", "severity": "minor", "estimatedCost": 8, "confidence": 90}],
		"decision": "human_review"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got assessmentBody
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 3, got.ImageCount)
	require.NotNil(t, got.Result)
	assert.Equal(t, int64(8000), got.Result.Damages[0].EstimatedCost)
	assert.Equal(t, dal.DecisionHumanReview, got.Result.Decision)
	assert.Nil(t, got.Recommendation)

	resp, _ = env.do(t, http.MethodPost, "/api/assessments", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/assessments?imageCount=-2", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOverrideAssessment(t *testing.T) {
	env := newTestEnv(t, nil, 1, 1)

	resp, _ := env.do(t, http.MethodPost, "/api/assessments", severeLadaPayload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"BadDecision", "/api/assessments/1/override", `{"decision": "approve", "reason": "ok"}`, http.StatusBadRequest},
		{"MissingReason", "/api/assessments/1/override", `{"decision": "human_review"}`, http.StatusBadRequest},
		{"BlankReason", "/api/assessments/1/override", `{"decision": "human_review", "reason": " "}`, http.StatusBadRequest},
		{"BadID", "/api/assessments/abc/override", `{"decision": "human_review", "reason": "x"}`, http.StatusBadRequest},
		{"Unknown", "/api/assessments/99/override", `{"decision": "human_review", "reason": "x"}`, http.StatusNotFound},
		{"OK", "/api/assessments/1/override", `{"decision": "human_review", "reason": "photos are unclear"}`, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.status, resp.StatusCode, string(body))
			if tc.status != http.StatusOK {
				return
			}
			var got assessmentBody
			require.NoError(t, json.Unmarshal(body, &got))
			require.NotNil(t, got.HumanOverride)
			assert.Equal(t, dal.DecisionHumanReview, *got.HumanOverride)
			assert.Equal(t, "photos are unclear", *got.HumanOverrideReason)
			assert.Equal(t, dal.DecisionEscalate, got.Result.Decision, "automated decision is kept")
		})
	}
}

func TestGetAssessmentErrors(t *testing.T) {
	env := newTestEnv(t, nil, 1, 1)

	resp, _ := env.do(t, http.MethodGet, "/api/assessments/42", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = env.do(t, http.MethodGet, "/api/assessments/nope", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/assessments", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestAdminSettings(t *testing.T) {
	env := newTestEnv(t, nil, 1, 1)

	resp, body := env.do(t, http.MethodGet, "/api/admin/settings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var settings dal.PricingSettings
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, pricing.DefaultSettings(), settings)

	resp, body = env.do(t, http.MethodPatch, "/api/admin/settings", `{"basePrice": 3000000, "captchaEnabled": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, 3_000_000.0, settings.BasePrice)
	assert.True(t, settings.CaptchaEnabled)
	assert.Equal(t, 1.5, settings.PremiumBrandMultiplier)

	resp, _ = env.do(t, http.MethodPatch, "/api/admin/settings", `{"basePrice": "lots"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 3_000_000.0, env.pricing.Get().BasePrice)

	resp, body = env.do(t, http.MethodPost, "/api/valuations", `{"brand": "BMW", "model": "X5", "year": 2026, "condition": "good"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v dal.Valuation
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, int64(7_875_000), v.Valuation.AverageValue, "next valuation sees the new base price")
}

func TestAdminBranding(t *testing.T) {
	env := newTestEnv(t, nil, 1, 1)

	resp, body := env.do(t, http.MethodPatch, "/api/admin/branding", `{"siteName": "АвтоОценка", "whatsapp": "+7999"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var branding dal.BrandingSettings
	require.NoError(t, json.Unmarshal(body, &branding))
	assert.Equal(t, "АвтоОценка", branding.SiteName)
	assert.Equal(t, "+7999", branding.WhatsApp)
	assert.Equal(t, pricing.DefaultBranding().SiteTagline, branding.SiteTagline)

	resp, body = env.do(t, http.MethodPost, "/api/admin/logo", `{"image": "`+pngDataURL+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"logoUrl": "`+pngDataURL+`"}`, string(body))

	resp, _ = env.do(t, http.MethodPost, "/api/admin/logo", `{"image": ""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/admin/branding", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &branding))
	assert.Equal(t, pngDataURL, branding.LogoURL)
}

func TestHealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil, 1, 1)

	resp, body := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "ok", "visionEnabled": false}`, string(body))

	env.do(t, http.MethodPost, "/api/valuations", `{"brand": "BMW", "model": "X5", "year": 2026, "condition": "good"}`)

	resp, body = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `route="/api/valuations"`)
	assert.Contains(t, string(body), `autovalue_valuations_total{premium="true"} 1`)
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t, nil, 1, 1)

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(requestIDHeader))
}

func TestNewRouterRequiresDeps(t *testing.T) {
	_, err := NewRouter(Deps{})
	assert.Error(t, err)
}
