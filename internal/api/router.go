package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter serves every route both at the root and under /api. Payment
// routes are additionally reachable under /stripe.
func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/health", apiHandler.HealthHandler)

	r.Group(apiHandler.routes)
	r.Route("/api", apiHandler.routes)

	return r
}

func (h *APIHandler) routes(r chi.Router) {
	// Accounts
	r.Post("/signup", h.SignupHandler)
	r.Post("/login", h.LoginHandler)
	r.Post("/logout", h.LogoutHandler)

	r.Group(func(r chi.Router) {
		r.Use(h.JWTAuthMiddleware)

		r.Get("/me", h.MeHandler)
		r.Get("/users/{userID}/location", h.UserLocationHandler)
	})

	// Chats and meetups
	r.Get("/chats", h.ListChatsHandler)
	r.Post("/chats", h.CreateChatHandler)
	r.Get("/chats/{chatID}", h.GetChatHandler)
	r.Patch("/chats/{chatID}", h.UpdateChatHandler)
	r.Patch("/chats/{chatID}/message", h.PostMessageHandler)
	r.Patch("/chats/{chatID}/meetup/agree", h.AgreeMeetupHandler)
	r.Patch("/chats/{chatID}/confirm-otp", h.ConfirmOTPHandler)

	// Listings
	r.Get("/products", h.ListProductsHandler)
	r.Post("/products", h.CreateProductHandler)
	r.Get("/products/{productID}", h.GetProductHandler)
	r.Patch("/products/{productID}", h.UpdateProductHandler)

	// Model-backed helpers
	r.Post("/generate-location", h.GenerateLocationHandler)
	r.Post("/evaluate-price", h.EvaluatePriceHandler)
	r.Post("/evaluate-appearance-cond/{productID}", h.EvaluateConditionHandler)

	h.paymentRoutes(r)
	r.Route("/stripe", h.paymentRoutes)
}

func (h *APIHandler) paymentRoutes(r chi.Router) {
	r.Post("/create-connect-account", h.CreateConnectAccountHandler)
	r.Post("/create-payment-intent", h.CreatePaymentIntentHandler)
	r.Post("/create-checkout-session", h.CreateCheckoutSessionHandler)
}
