// Package stripe wraps the Stripe SDK behind a small interface so services
// can be tested without hitting the Stripe API.
package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

type Client interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, orderID string) (*PaymentIntent, error)
}

type client struct{}

func NewClient(apiKey string) Client {
	stripe.Key = apiKey

	return &client{}
}

func (c *client) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, orderID string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", orderID)

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}

	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}
