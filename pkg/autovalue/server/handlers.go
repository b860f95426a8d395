package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/ratio"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/store"
)

// valuationRequest accepts both the nested {vehicleDetails, contactInfo}
// form and the flat vehicle fields.
type valuationRequest struct {
	dal.VehicleAttributes
	VehicleDetails *dal.VehicleAttributes `json:"vehicleDetails"`
	ContactInfo    *dal.ContactInfo       `json:"contactInfo"`
}

func (v valuationRequest) details() dal.VehicleAttributes {
	if v.VehicleDetails != nil {
		return *v.VehicleDetails
	}
	return v.VehicleAttributes
}

func (h *httpServer) reqLog(r *http.Request) *zap.Logger {
	return h.log.With(zap.String("request_id", requestID(r.Context())))
}

// CreateValuation values a vehicle from user supplied details and stores it.
func (h *httpServer) CreateValuation(w http.ResponseWriter, r *http.Request) {
	log := h.reqLog(r)

	req, err := h.validateValuationRequest(w, r)
	if err != nil {
		log.Info("valuation request validation failed", zap.Error(err))
		return
	}
	details := req.details()

	if _, err := validateYear(w, details.Year, h.now()); err != nil {
		log.Info("year validation failed", zap.Error(err))
		return
	}

	result := h.engine.CalculateValue(details)
	h.metrics.ObserveValuation(result)

	stored, err := h.store.CreateValuation(r.Context(), details, req.ContactInfo, ratio.Compose(0, result))
	if err != nil {
		log.Error("store valuation", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create valuation")
		return
	}

	log.Info("valuation created",
		zap.Int64("id", stored.ID),
		zap.String("brand", details.Brand),
		zap.Int64("average_value", result.AverageValue),
	)
	writeJSON(w, http.StatusOK, stored)
}

// ListValuations returns stored valuations, newest first.
func (h *httpServer) ListValuations(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListValuations(r.Context())
	if err != nil {
		h.reqLog(r).Error("list valuations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch valuations")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *httpServer) validateValuationRequest(w http.ResponseWriter, r *http.Request) (valuationRequest, error) {
	body, err := readBody(w, r, h.schemas.valuation)
	if err != nil {
		writeValidationError(w, err)
		return valuationRequest{}, err
	}
	var req valuationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		verr := &validationError{msg: "invalid request", details: []FieldError{{Field: "/", Message: err.Error()}}}
		writeValidationError(w, verr)
		return valuationRequest{}, verr
	}
	return req, nil
}

func validateYear(w http.ResponseWriter, year *int, now time.Time) (int, error) {
	if year == nil {
		return 0, nil
	}
	maxYear := now.Year() + 1
	if *year < MinVehicleYear || *year > maxYear {
		err := &validationError{
			msg:     "invalid request",
			details: []FieldError{{Field: "year", Message: fmt.Sprintf("must be between %d and %d", MinVehicleYear, maxYear)}},
		}
		writeValidationError(w, err)
		return 0, err
	}
	return *year, nil
}

func validateID(w http.ResponseWriter, vars map[string]string) (int64, error) {
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid assessment id")
		return 0, errors.New("invalid assessment id")
	}
	return id, nil
}

// storeFailure maps a repository error onto 404 or 500.
func (h *httpServer) storeFailure(w http.ResponseWriter, r *http.Request, err error, notFound, failed string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	h.reqLog(r).Error(failed, zap.Error(err))
	writeError(w, http.StatusInternalServerError, failed)
}
