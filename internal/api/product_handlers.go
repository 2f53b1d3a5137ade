package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *APIHandler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.listings.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *APIHandler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := h.listings.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *APIHandler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeBody(w, r, &fields, "No product data provided") {
		return
	}

	productID, err := h.listings.Create(r.Context(), fields)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":    "Product created successfully",
		"product_id": productID,
	})
}

func (h *APIHandler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeBody(w, r, &fields, "No product data provided") {
		return
	}

	if err := h.listings.Update(r.Context(), chi.URLParam(r, "productID"), fields); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product information updated successfully"})
}
