package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"swapmeet.ie/marketplace/internal/core"
)

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	chats, err := h.negotiation.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	chat, err := h.negotiation.Get(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID, err := h.negotiation.CreateChat(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Chat created successfully",
		"chat_id": chatID,
	})
}

func (h *APIHandler) UpdateChatHandler(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeBody(w, r, &fields, "No chat data provided") {
		return
	}

	token, err := h.negotiation.UpdateChat(r.Context(), chi.URLParam(r, "chatID"), fields)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	resp := map[string]string{"message": "Chat information updated successfully"}
	if token != "" {
		resp["otp_token"] = token
	}
	writeJSON(w, http.StatusOK, resp)
}

type PostMessageRequest struct {
	Sender    string     `json:"sender"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if !decodeBody(w, r, &req, "No message data provided") {
		return
	}

	var ts time.Time
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	if err := h.negotiation.AddMessage(r.Context(), chi.URLParam(r, "chatID"), req.Sender, req.Text, ts); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "New message added successfully"})
}

func (h *APIHandler) AgreeMeetupHandler(w http.ResponseWriter, r *http.Request) {
	var terms core.MeetupTerms
	if !decodeBody(w, r, &terms, "No meetup details provided") {
		return
	}

	token, err := h.negotiation.AgreeMeetup(r.Context(), chi.URLParam(r, "chatID"), terms)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Meetup agreed and document updated successfully.",
		"otp_token": token,
	})
}

type ConfirmOTPRequest struct {
	OTP string `json:"otp"`
}

func (h *APIHandler) ConfirmOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req ConfirmOTPRequest
	if !decodeBody(w, r, &req, "No OTP provided") {
		return
	}

	err := h.negotiation.ConfirmOTP(r.Context(), chi.URLParam(r, "chatID"), req.OTP)
	if err != nil {
		// a wrong code is a bad request here, not an authentication failure
		if errors.Is(err, core.ErrAuth) {
			h.writeServiceErrorStatus(w, r, http.StatusBadRequest, err)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP confirmed successfully"})
}
