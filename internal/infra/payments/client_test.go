package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v75"
)

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient("")
	if c.Configured() {
		t.Fatal("client without key reports configured")
	}
	if _, err := c.FindCustomerIDByEmail(context.Background(), "a@b.com"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("FindCustomerIDByEmail err = %v, want ErrNotConfigured", err)
	}
	if _, err := c.CreateCheckoutSession(context.Background(), CheckoutRequest{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("CreateCheckoutSession err = %v, want ErrNotConfigured", err)
	}
}

func TestSubscriptionStateFrom(t *testing.T) {
	end := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	sub := &stripe.Subscription{
		ID:                "sub_1",
		Status:            stripe.SubscriptionStatusActive,
		CancelAtPeriodEnd: true,
		CurrentPeriodEnd:  end.Unix(),
		Customer:          &stripe.Customer{ID: "cus_1"},
	}

	got := SubscriptionStateFrom(sub)
	if got.ID != "sub_1" || got.CustomerID != "cus_1" || got.Status != "active" || !got.CancelAtPeriodEnd {
		t.Fatalf("SubscriptionStateFrom = %+v", got)
	}
	if !got.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("CurrentPeriodEnd = %v, want %v", got.CurrentPeriodEnd, end)
	}
}
