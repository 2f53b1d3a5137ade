package api

import (
	"errors"
	"net/http"

	"swapmeet.ie/marketplace/internal/core"
)

type ConnectAccountRequest struct {
	Email     string `json:"email"`
	ReturnURL string `json:"return_url"`
}

type LineItemsRequest struct {
	LineItems []core.LineItem `json:"line_items"`
	ReturnURL string          `json:"return_url"`
}

func (h *APIHandler) CreateConnectAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req ConnectAccountRequest
	if !decodeBody(w, r, &req, "No JSON payload provided") {
		return
	}

	url, err := h.payments.CreateConnectAccount(r.Context(), req.Email, req.ReturnURL)
	if err != nil {
		h.writePaymentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *APIHandler) CreatePaymentIntentHandler(w http.ResponseWriter, r *http.Request) {
	var req LineItemsRequest
	if !decodeBody(w, r, &req, "No line items provided") {
		return
	}

	secret, err := h.payments.CreatePaymentIntent(r.Context(), req.LineItems)
	if err != nil {
		h.writePaymentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}

func (h *APIHandler) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req LineItemsRequest
	if !decodeBody(w, r, &req, "No line items provided") {
		return
	}

	sessionID, err := h.payments.CreateCheckoutSession(r.Context(), req.LineItems, req.ReturnURL)
	if err != nil {
		h.writePaymentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": sessionID})
}

// Processor failures go back as 400 with the processor's own message.
func (h *APIHandler) writePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrUpstream) {
		h.logger.Warn(r.Context(), "payment processor error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeServiceError(w, r, err)
}
