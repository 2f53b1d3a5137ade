package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"swapmeet.ie/marketplace/internal/core"
)

// Valuation failures (model error or unreadable reply) are reported inside a
// 200 payload; the mobile client reads the "error" field.

type GenerateLocationRequest struct {
	Lat1 *float64 `json:"lat1"`
	Lon1 *float64 `json:"lon1"`
	Lat2 *float64 `json:"lat2"`
	Lon2 *float64 `json:"lon2"`
}

func (h *APIHandler) GenerateLocationHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateLocationRequest
	if !decodeBody(w, r, &req, "No JSON payload provided") {
		return
	}
	if req.Lat1 == nil || req.Lon1 == nil || req.Lat2 == nil || req.Lon2 == nil {
		writeError(w, http.StatusBadRequest, "Missing parameters")
		return
	}

	result, err := h.valuation.SuggestMeetupLocation(r.Context(), *req.Lat1, *req.Lon1, *req.Lat2, *req.Lon2)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

type EvaluatePriceRequest struct {
	Desc       string   `json:"desc"`
	Price      *float64 `json:"price"`
	Seller     string   `json:"seller"`
	SellerName string   `json:"seller_name"`
	ImageURLs  []string `json:"image_urls"`
}

func (h *APIHandler) EvaluatePriceHandler(w http.ResponseWriter, r *http.Request) {
	var req EvaluatePriceRequest
	if !decodeBody(w, r, &req, "No JSON payload provided") {
		return
	}
	if req.Desc == "" || req.Price == nil {
		writeError(w, http.StatusBadRequest, "Missing parameters")
		return
	}

	seller := req.Seller
	if seller == "" {
		seller = req.SellerName
	}
	result, err := h.valuation.EvaluatePrice(r.Context(), req.Desc, *req.Price, seller, req.ImageURLs)
	if err != nil && !isValuationFailure(err) {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

type EvaluateConditionRequest struct {
	ImageURLs []string `json:"image_urls"`
}

// EvaluateConditionHandler evaluates the product's pictures (or the ones in
// the body) and stores the verdict on the product.
func (h *APIHandler) EvaluateConditionHandler(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req EvaluateConditionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product, err := h.listings.Get(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	images := req.ImageURLs
	if len(images) == 0 {
		images = product.ImageURLs()
	}
	if len(images) == 0 {
		writeError(w, http.StatusBadRequest, "Product has no images to evaluate")
		return
	}

	report, err := h.valuation.EvaluateCondition(r.Context(), images)
	if err != nil {
		if isValuationFailure(err) {
			writeJSON(w, http.StatusOK, map[string]any{"result": report})
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.listings.RecordCondition(r.Context(), productID, *report); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": report})
}

func isValuationFailure(err error) bool {
	return errors.Is(err, core.ErrUpstream) || errors.Is(err, core.ErrParse)
}
