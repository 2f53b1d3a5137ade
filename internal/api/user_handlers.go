package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"swapmeet.ie/marketplace/internal/store"
)

type locationPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// complete returns the location only when both coordinates are present.
func (l *locationPayload) complete() *store.UserLocation {
	if l == nil || l.Latitude == nil || l.Longitude == nil {
		return nil
	}
	return &store.UserLocation{Latitude: *l.Latitude, Longitude: *l.Longitude}
}

type SignupRequest struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Location *locationPayload `json:"location"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeBody(w, r, &req, "No user data provided") {
		return
	}

	userID, err := h.identity.Register(r.Context(), req.Email, req.Password, req.Location.complete())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User created successfully",
		"user_id": userID,
	})
}

type LoginRequest struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Location *locationPayload `json:"location"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req, "No login data provided") {
		return
	}

	session, err := h.identity.Authenticate(r.Context(), req.Email, req.Password, req.Location.complete())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Login successful",
		"token":    session.Token,
		"isSeller": session.IsSeller,
	})
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": h.identity.Logout(r.Context())})
}

func (h *APIHandler) UserLocationHandler(w http.ResponseWriter, r *http.Request) {
	location, err := h.identity.Location(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID})
}
