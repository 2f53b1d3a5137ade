package core

import (
	"context"

	"swapmeet.ie/marketplace/internal/logging"
)

// LineItem mirrors the processor's checkout line item shape.
type LineItem struct {
	PriceData PriceData `json:"price_data"`
	Quantity  *int64    `json:"quantity,omitempty"`
}

type PriceData struct {
	Currency    string      `json:"currency"`
	UnitAmount  int64       `json:"unit_amount"`
	ProductData ProductData `json:"product_data"`
}

type ProductData struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// Units returns the quantity, defaulting to one.
func (li LineItem) Units() int64 {
	if li.Quantity == nil {
		return 1
	}
	return *li.Quantity
}

// Processor is the payment provider. Errors carry the provider's message.
type Processor interface {
	CreateExpressAccount(ctx context.Context, email string) (string, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error)
	CreateCheckoutSession(ctx context.Context, items []LineItem, successURL, cancelURL string) (string, error)
}

type PaymentService struct {
	processor Processor
	deployURL string
	logger    logging.Logger
}

func NewPaymentService(p Processor, deployURL string, logger logging.Logger) *PaymentService {
	return &PaymentService{processor: p, deployURL: deployURL, logger: logger.With("service", "payment")}
}

// CreateConnectAccount creates a seller account and returns its onboarding link.
func (s *PaymentService) CreateConnectAccount(ctx context.Context, email, returnURL string) (string, error) {
	if email == "" || returnURL == "" {
		return "", validationError("email and return_url are required")
	}
	accountID, err := s.processor.CreateExpressAccount(ctx, email)
	if err != nil {
		return "", upstreamError(err)
	}
	url, err := s.processor.CreateAccountLink(ctx, accountID,
		s.deployURL+"/stripe/create-connect-account", returnURL+"/")
	if err != nil {
		return "", upstreamError(err)
	}
	s.logger.Info(ctx, "connect account created", "account_id", accountID)
	return url, nil
}

// CreatePaymentIntent charges for the first line item only and returns the
// client secret.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, items []LineItem) (string, error) {
	if len(items) == 0 {
		return "", validationError("No line items provided")
	}
	item := items[0]
	amount := item.PriceData.UnitAmount * item.Units()

	secret, err := s.processor.CreatePaymentIntent(ctx, amount, item.PriceData.Currency)
	if err != nil {
		return "", upstreamError(err)
	}
	return secret, nil
}

// CreateCheckoutSession starts a hosted card checkout and returns the session id.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, items []LineItem, returnURL string) (string, error) {
	if len(items) == 0 {
		return "", validationError("No line items provided")
	}
	if returnURL == "" {
		return "", validationError("return_url is required")
	}
	id, err := s.processor.CreateCheckoutSession(ctx, items,
		returnURL+"?session_id={CHECKOUT_SESSION_ID}", returnURL)
	if err != nil {
		return "", upstreamError(err)
	}
	return id, nil
}
