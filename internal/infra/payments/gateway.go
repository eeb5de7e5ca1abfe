package payments

import (
	"context"
	"errors"
	"time"
)

var ErrNotConfigured = errors.New("stripe is not configured")

// Gateway is the subset of Stripe the API relies on.
type Gateway interface {
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)
	// FindCustomerIDByEmail returns the most recent customer with that email,
	// or "" when Stripe has none.
	FindCustomerIDByEmail(ctx context.Context, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (SubscriptionState, error)
	ListRecurringPrices(ctx context.Context) ([]Price, error)
}

type CheckoutRequest struct {
	PriceID           string
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type SubscriptionState struct {
	ID                string
	CustomerID        string
	Status            string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
}

type Price struct {
	ID          string
	ProductID   string
	ProductName string
	Currency    string
	Interval    string
	UnitAmount  int64
	Metadata    map[string]string
}
