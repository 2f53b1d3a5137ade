package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"swapmeet.ie/marketplace/internal/auth"
	"swapmeet.ie/marketplace/internal/core"
	"swapmeet.ie/marketplace/internal/logging"
)

type contextKey string

const userIDKey contextKey = "userID"

var errEmptyBody = errors.New("empty request body")

type APIHandler struct {
	identity    *core.IdentityService
	listings    *core.ListingService
	negotiation *core.NegotiationService
	valuation   *core.ValuationService
	payments    *core.PaymentService
	tokens      *auth.TokenIssuer
	logger      logging.Logger
}

// Services groups everything the handlers call into.
type Services struct {
	Identity    *core.IdentityService
	Listings    *core.ListingService
	Negotiation *core.NegotiationService
	Valuation   *core.ValuationService
	Payments    *core.PaymentService
	Tokens      *auth.TokenIssuer
}

func NewAPIHandler(s Services, logger logging.Logger) *APIHandler {
	return &APIHandler{
		identity:    s.Identity,
		listings:    s.Listings,
		negotiation: s.Negotiation,
		valuation:   s.Valuation,
		payments:    s.Payments,
		tokens:      s.Tokens,
		logger:      logger.With("component", "api"),
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := h.tokens.ValidateJWT(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the subject of the bearer token, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads the request body into v. An empty body yields errEmptyBody.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// decodeBody is decodeJSON with the 400 response written for the caller.
// emptyMsg is the message used when no body was sent.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, emptyMsg string) bool {
	if err := decodeJSON(r, v); err != nil {
		if errors.Is(err, errEmptyBody) {
			writeError(w, http.StatusBadRequest, emptyMsg)
		} else {
			writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		}
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAuth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps a service error onto a status and writes it. Storage
// failures are logged in full but only their summary reaches the client.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeServiceErrorStatus(w, r, statusFor(err), err)
}

func (h *APIHandler) writeServiceErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		var se *core.ServiceError
		if errors.As(err, &se) && errors.Is(err, core.ErrStorage) && se.Msg != "" {
			msg = se.Msg
		}
	}
	writeError(w, status, msg)
}
