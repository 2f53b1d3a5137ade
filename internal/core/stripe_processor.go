package core

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProcessor is the production Processor.
type StripeProcessor struct {
	api *client.API
}

func NewStripeProcessor(key string) *StripeProcessor {
	api := &client.API{}
	api.Init(key, nil)
	return &StripeProcessor{api: api}
}

func (p *StripeProcessor) CreateExpressAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String("IE"),
		Email:   stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	account, err := p.api.Accounts.New(params)
	if err != nil {
		return "", stripeError(err)
	}
	return account.ID, nil
}

func (p *StripeProcessor) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx
	link, err := p.api.AccountLinks.New(params)
	if err != nil {
		return "", stripeError(err)
	}
	return link.URL, nil
}

func (p *StripeProcessor) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", stripeError(err)
	}
	return intent.ClientSecret, nil
}

func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, items []LineItem, successURL, cancelURL string) (string, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.PriceData.ProductData.Name),
		}
		if item.PriceData.ProductData.Description != "" {
			product.Description = stripe.String(item.PriceData.ProductData.Description)
		}
		if len(item.PriceData.ProductData.Images) > 0 {
			product.Images = stripe.StringSlice(item.PriceData.ProductData.Images)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(item.PriceData.Currency),
				UnitAmount:  stripe.Int64(item.PriceData.UnitAmount),
				ProductData: product,
			},
			Quantity: stripe.Int64(item.Units()),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
	}
	params.Context = ctx
	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", stripeError(err)
	}
	return session.ID, nil
}

// stripeError keeps only the human-readable message; *stripe.Error renders
// itself as JSON otherwise.
func stripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return errors.New(se.Msg)
	}
	return err
}
