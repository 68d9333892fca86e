package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNotConfigured  = errors.New("payment gateway is not configured")
	ErrInvalidAmounts = errors.New("order totals and shipping prices must not be negative")
)

type Shipping struct {
	Price  int64  `json:"price"`
	Method string `json:"method"`
}

type Customer struct {
	Name       string `json:"name"`
	EmailPhone string `json:"email_phone"`
	Address    string `json:"address"`
}

// CartOrder is one restaurant order inside a checkout cart.
type CartOrder struct {
	OrderID    string   `json:"orderID"`
	OrderTotal int64    `json:"orderTotal"`
	Shipping   Shipping `json:"shipping"`
	Customer   Customer `json:"customer"`
}

type SheetRequest struct {
	Cart []CartOrder `json:"cart"`
}

// Sheet is what the mobile payment sheet needs to collect a card payment.
type Sheet struct {
	PaymentIntent  string `json:"paymentIntent"`
	EphemeralKey   string `json:"ephemeralKey"`
	Customer       string `json:"customer"`
	PublishableKey string `json:"publishableKey"`
}

type Gateway interface {
	CreatePaymentSheet(ctx context.Context, req SheetRequest) (*Sheet, error)
}

// Intent is the single payment collected for a whole cart.
type Intent struct {
	Amount          int64
	Currency        string
	OrderIDs        []string
	ShippingMethods []string
	Customer        Customer
}

// BuildIntent sums every order and its shipping into one amount. The customer
// of the first order pays for the whole cart.
func BuildIntent(req SheetRequest) (*Intent, error) {
	if len(req.Cart) == 0 {
		return nil, ErrEmptyCart
	}
	in := &Intent{Currency: defaultCurrency, Customer: req.Cart[0].Customer}
	for _, o := range req.Cart {
		if o.OrderTotal < 0 || o.Shipping.Price < 0 {
			return nil, ErrInvalidAmounts
		}
		in.Amount += o.OrderTotal + o.Shipping.Price
		in.OrderIDs = append(in.OrderIDs, o.OrderID)
		in.ShippingMethods = append(in.ShippingMethods, o.Shipping.Method)
	}
	return in, nil
}

// Metadata is attached to the payment intent and comes back on the charge webhook.
func (in *Intent) Metadata() map[string]string {
	return map[string]string{
		"order_ids":        strings.Join(in.OrderIDs, ","),
		"shipping_methods": strings.Join(in.ShippingMethods, ","),
		"email":            in.Customer.EmailPhone,
		"name":             in.Customer.Name,
	}
}

type StripeGateway struct {
	api            *client.API
	publishableKey string
}

func NewStripeGateway(secretKey, publishableKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, publishableKey: publishableKey}
}

func (g *StripeGateway) CreatePaymentSheet(ctx context.Context, req SheetRequest) (*Sheet, error) {
	intent, err := BuildIntent(req)
	if err != nil {
		return nil, err
	}

	customerParams := &stripe.CustomerParams{
		Name:  stripe.String(intent.Customer.Name),
		Email: stripe.String(intent.Customer.EmailPhone),
	}
	customerParams.Context = ctx
	customerParams.AddMetadata("address", intent.Customer.Address)
	customer, err := g.api.Customers.New(customerParams)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	keyParams := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(customer.ID),
		StripeVersion: stripe.String(stripe.APIVersion),
	}
	keyParams.Context = ctx
	key, err := g.api.EphemeralKeys.New(keyParams)
	if err != nil {
		return nil, fmt.Errorf("create ephemeral key: %w", err)
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(intent.Amount),
		Currency:           stripe.String(intent.Currency),
		Customer:           stripe.String(customer.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	piParams.Context = ctx
	for k, v := range intent.Metadata() {
		piParams.AddMetadata(k, v)
	}
	pi, err := g.api.PaymentIntents.New(piParams)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &Sheet{
		PaymentIntent:  pi.ClientSecret,
		EphemeralKey:   key.Secret,
		Customer:       customer.ID,
		PublishableKey: g.publishableKey,
	}, nil
}
