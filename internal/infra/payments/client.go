package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// Client implements Gateway with the Stripe SDK. A Client built without a
// secret key answers every call with ErrNotConfigured.
type Client struct {
	sc *client.API
}

func NewClient(secretKey string) *Client {
	if secretKey == "" {
		return &Client{}
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Client{sc: sc}
}

func (c *Client) Configured() bool { return c.sc != nil }

func (c *Client) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	if c.sc == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: metadata,
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx

	cus, err := c.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cus.ID, nil
}

func (c *Client) FindCustomerIDByEmail(ctx context.Context, email string) (string, error) {
	if c.sc == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	it := c.sc.Customers.List(params)
	if it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("list stripe customers: %w", err)
	}
	return "", nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	if c.sc == nil {
		return CheckoutSession{}, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),

		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},

		CustomerEmail:     stripe.String(req.CustomerEmail),
		ClientReferenceID: stripe.String(req.ClientReferenceID),

		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		},
	}
	params.Context = ctx

	s, err := c.sc.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if c.sc == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	portal, err := c.sc.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return portal.URL, nil
}

func (c *Client) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (SubscriptionState, error) {
	if c.sc == nil {
		return SubscriptionState{}, ErrNotConfigured
	}
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(cancel)}
	params.Context = ctx

	sub, err := c.sc.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return SubscriptionState{}, fmt.Errorf("update subscription %s: %w", subscriptionID, err)
	}
	return SubscriptionStateFrom(sub), nil
}

func (c *Client) ListRecurringPrices(ctx context.Context) ([]Price, error) {
	if c.sc == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PriceListParams{}
	params.Active = stripe.Bool(true)
	params.Type = stripe.String("recurring")
	params.AddExpand("data.product")
	params.Context = ctx

	var out []Price
	it := c.sc.Prices.List(params)
	for it.Next() {
		p := it.Price()
		if !p.Active || p.Recurring == nil || p.Product == nil || !p.Product.Active {
			continue
		}
		out = append(out, Price{
			ID:          p.ID,
			ProductID:   p.Product.ID,
			ProductName: p.Product.Name,
			Currency:    string(p.Currency),
			Interval:    string(p.Recurring.Interval),
			UnitAmount:  p.UnitAmount,
			Metadata:    p.Metadata,
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list stripe prices: %w", err)
	}
	return out, nil
}

// SubscriptionStateFrom flattens a Stripe subscription, including the ones
// decoded from webhook payloads.
func SubscriptionStateFrom(sub *stripe.Subscription) SubscriptionState {
	st := SubscriptionState{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		st.CustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		st.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	return st
}
