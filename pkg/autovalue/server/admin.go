package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

func (h *httpServer) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pricing.Get())
}

// PatchSettings merges the supplied pricing fields. Values are not range
// checked; the operator owns them.
func (h *httpServer) PatchSettings(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.schemas.pricing)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	var patch dal.PricingPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	updated := h.pricing.Update(patch)
	h.reqLog(r).Info("pricing settings updated",
		zap.Float64("base_price", updated.BasePrice),
		zap.Float64("premium_brand_multiplier", updated.PremiumBrandMultiplier),
		zap.Float64("depreciation_rate", updated.DepreciationRate),
		zap.Float64("mileage_penalty", updated.MileagePenalty),
	)
	writeJSON(w, http.StatusOK, updated)
}

func (h *httpServer) GetBranding(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.branding.Get())
}

func (h *httpServer) PatchBranding(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.schemas.branding)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	var patch dal.BrandingPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	writeJSON(w, http.StatusOK, h.branding.Update(patch))
}

// UploadLogo stores the logo as the given data URL.
func (h *httpServer) UploadLogo(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.schemas.logo)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	var req struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "image data is required")
		return
	}
	updated := h.branding.Update(dal.BrandingPatch{LogoURL: &req.Image})
	writeJSON(w, http.StatusOK, map[string]string{"logoUrl": updated.LogoURL})
}
