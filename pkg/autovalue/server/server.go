// Package server exposes valuations, damage assessments and admin settings
// over HTTP.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/assessment"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/metrics"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/pricing"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/store"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/valuation"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/vision"
)

// Deps are the collaborators of the HTTP layer. Analyzer may be nil, in
// which case image analysis answers 503.
type Deps struct {
	Engine   *valuation.Engine
	Pricing  *pricing.Store
	Branding *pricing.BrandingStore
	Assessor *assessment.Service
	Store    store.Store
	Analyzer vision.Analyzer
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	// RateLimitRPS and RateLimitBurst bound image analysis per client address.
	RateLimitRPS   float64
	RateLimitBurst int

	// Now defaults to time.Now; it bounds the newest accepted model year.
	Now func() time.Time
}

// NewHTTPServer returns a new HTTP server
func NewHTTPServer(addr string, deps Deps) (*http.Server, error) {
	r, err := NewRouter(deps)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// NewRouter wires every route onto a mux router.
func NewRouter(deps Deps) (*mux.Router, error) {
	server, err := newHTTPServer(deps)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(withRequestID, server.instrument)

	r.HandleFunc("/healthz", server.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", server.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/assessments", server.ListAssessments).Methods(http.MethodGet)
	api.HandleFunc("/assessments", server.CreateAssessment).Methods(http.MethodPost)
	api.Handle("/assessments/analyze", server.limiter.middleware(http.HandlerFunc(server.AnalyzeAssessment))).Methods(http.MethodPost)
	api.HandleFunc("/assessments/{id}", server.GetAssessment).Methods(http.MethodGet)
	api.HandleFunc("/assessments/{id}/override", server.OverrideAssessment).Methods(http.MethodPost)

	api.HandleFunc("/valuations", server.ListValuations).Methods(http.MethodGet)
	api.HandleFunc("/valuations", server.CreateValuation).Methods(http.MethodPost)

	api.HandleFunc("/admin/settings", server.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/admin/settings", server.PatchSettings).Methods(http.MethodPatch)
	api.HandleFunc("/admin/branding", server.GetBranding).Methods(http.MethodGet)
	api.HandleFunc("/admin/branding", server.PatchBranding).Methods(http.MethodPatch)
	api.HandleFunc("/admin/logo", server.UploadLogo).Methods(http.MethodPost)

	return r, nil
}

type httpServer struct {
	log      *zap.Logger
	engine   *valuation.Engine
	pricing  *pricing.Store
	branding *pricing.BrandingStore
	assessor *assessment.Service
	store    store.Store
	analyzer vision.Analyzer
	metrics  *metrics.Metrics
	limiter  *ipRateLimiter
	schemas  *schemas
	now      func() time.Time
}

func newHTTPServer(deps Deps) (*httpServer, error) {
	if deps.Engine == nil || deps.Pricing == nil || deps.Branding == nil || deps.Assessor == nil || deps.Store == nil {
		return nil, fmt.Errorf("server: engine, pricing, branding, assessor and store are required")
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.RateLimitRPS <= 0 {
		deps.RateLimitRPS = 1
	}
	if deps.RateLimitBurst < 1 {
		deps.RateLimitBurst = 1
	}

	sch, err := compileSchemas()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	return &httpServer{
		log:      deps.Log,
		engine:   deps.Engine,
		pricing:  deps.Pricing,
		branding: deps.Branding,
		assessor: deps.Assessor,
		store:    deps.Store,
		analyzer: deps.Analyzer,
		metrics:  deps.Metrics,
		limiter:  newIPRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst),
		schemas:  sch,
		now:      deps.Now,
	}, nil
}

// Healthz reports liveness.
func (h *httpServer) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"visionEnabled": h.analyzer != nil,
	})
}
