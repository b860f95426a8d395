package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/ratio"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/vision"
)

const analysisFailedMessage = "failed to analyze vehicle damage, please try again"

// assessmentResponse adds the repair recommendation derived from the
// repair-to-value ratio, when a valuation is attached.
type assessmentResponse struct {
	dal.Assessment
	Recommendation *ratio.Recommendation `json:"recommendation,omitempty"`
}

func newAssessmentResponse(a dal.Assessment) assessmentResponse {
	resp := assessmentResponse{Assessment: a}
	if a.Result != nil && a.Result.VehicleValuation != nil {
		rec := ratio.Recommend(a.Result.VehicleValuation.RepairToValueRatio)
		resp.Recommendation = &rec
	}
	return resp
}

// ListAssessments returns stored assessments, newest first.
func (h *httpServer) ListAssessments(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListAssessments(r.Context())
	if err != nil {
		h.reqLog(r).Error("list assessments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch assessments")
		return
	}
	out := make([]assessmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAssessmentResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *httpServer) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := validateID(w, mux.Vars(r))
	if err != nil {
		return
	}
	a, err := h.store.GetAssessment(r.Context(), id)
	if err != nil {
		h.storeFailure(w, r, err, "assessment not found", "failed to fetch assessment")
		return
	}
	writeJSON(w, http.StatusOK, newAssessmentResponse(a))
}

// CreateAssessment assesses a vision payload supplied by the caller. The
// optional imageCount query parameter selects the multi-photo wording.
func (h *httpServer) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	log := h.reqLog(r)

	imageCount, err := validateImageCount(w, r.URL.Query().Get("imageCount"))
	if err != nil {
		log.Info("image count validation failed", zap.Error(err))
		return
	}
	body, err := readBody(w, r, nil)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	a, err := h.store.CreateAssessment(r.Context(), imageCount)
	if err != nil {
		log.Error("create assessment", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create assessment")
		return
	}
	h.completeAssessment(w, r, a.ID, body, imageCount)
}

// AnalyzeAssessment sends photos to the vision model and assesses its report.
func (h *httpServer) AnalyzeAssessment(w http.ResponseWriter, r *http.Request) {
	log := h.reqLog(r)
	if h.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "image analysis is not configured")
		return
	}

	images, err := h.validateImageSet(w, r)
	if err != nil {
		log.Info("analyze request validation failed", zap.Error(err))
		return
	}

	a, err := h.store.CreateAssessment(r.Context(), len(images))
	if err != nil {
		log.Error("create assessment", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create assessment")
		return
	}

	start := time.Now()
	raw, err := h.analyzer.Analyze(r.Context(), images)
	h.metrics.ObserveVision(err, time.Since(start))
	if err != nil {
		log.Error("vision analysis failed", zap.Int64("assessment_id", a.ID), zap.Error(err))
		h.failAssessment(r.Context(), log, a.ID)
		writeError(w, http.StatusInternalServerError, analysisFailedMessage)
		return
	}
	h.completeAssessment(w, r, a.ID, raw, len(images))
}

func (h *httpServer) completeAssessment(w http.ResponseWriter, r *http.Request, id int64, raw []byte, imageCount int) {
	log := h.reqLog(r)

	result, err := h.assessor.Assess(raw, imageCount)
	if err != nil {
		log.Error("assess payload", zap.Int64("assessment_id", id), zap.Error(err))
		h.failAssessment(r.Context(), log, id)
		writeError(w, http.StatusInternalServerError, analysisFailedMessage)
		return
	}

	done, err := h.store.CompleteAssessment(r.Context(), id, result)
	if err != nil {
		h.storeFailure(w, r, err, "assessment not found", "failed to save assessment")
		return
	}
	writeJSON(w, http.StatusOK, newAssessmentResponse(done))
}

func (h *httpServer) failAssessment(ctx context.Context, log *zap.Logger, id int64) {
	// The request context may already be cancelled; the status must still land.
	if err := h.store.FailAssessment(context.WithoutCancel(ctx), id); err != nil {
		log.Error("mark assessment failed", zap.Int64("assessment_id", id), zap.Error(err))
	}
}

type overrideRequest struct {
	Decision dal.Decision `json:"decision"`
	Reason   string       `json:"reason"`
}

// OverrideAssessment records a human decision next to the automated one.
func (h *httpServer) OverrideAssessment(w http.ResponseWriter, r *http.Request) {
	log := h.reqLog(r)

	id, err := validateID(w, mux.Vars(r))
	if err != nil {
		return
	}
	body, err := readBody(w, r, h.schemas.override)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	var req overrideRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	a, err := h.store.OverrideAssessment(r.Context(), id, req.Decision, req.Reason)
	if err != nil {
		h.storeFailure(w, r, err, "assessment not found", "failed to override assessment")
		return
	}
	log.Info("assessment overridden",
		zap.Int64("assessment_id", id),
		zap.String("decision", string(req.Decision)),
	)
	writeJSON(w, http.StatusOK, newAssessmentResponse(a))
}

// validateImageSet decodes {"images": [...]} or the legacy {"image": "..."}.
func (h *httpServer) validateImageSet(w http.ResponseWriter, r *http.Request) ([]vision.Image, error) {
	body, err := readBody(w, r, h.schemas.analyze)
	if err != nil {
		writeValidationError(w, err)
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return nil, err
	}
	var list []string
	if raw, ok := fields["images"]; ok {
		if err := json.Unmarshal(raw, &list); err != nil || !allNonEmpty(list) {
			list = nil
		}
	}
	if len(list) == 0 {
		var single string
		if json.Unmarshal(fields["image"], &single) != nil || single == "" {
			writeError(w, http.StatusBadRequest, "at least one image is required")
			return nil, errors.New("no usable images")
		}
		list = []string{single}
	}

	images, err := vision.ParseImages(list)
	if err != nil {
		writeValidationError(w, &validationError{msg: "invalid image", details: []FieldError{{Field: "images", Message: err.Error()}}})
		return nil, err
	}
	return images, nil
}

func allNonEmpty(list []string) bool {
	if len(list) == 0 {
		return false
	}
	for _, s := range list {
		if s == "" {
			return false
		}
	}
	return true
}

func validateImageCount(w http.ResponseWriter, s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "imageCount must be a non-negative integer")
		return 0, errors.New("invalid image count")
	}
	return n, nil
}
