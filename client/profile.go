package client

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type Plan struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
}

type Subscription struct {
	ID                string     `json:"id"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
}

type Profile struct {
	ID           uint          `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Identity     string        `json:"identity"`
	Role         string        `json:"role"`
	Plan         *Plan         `json:"plan"`
	Subscription *Subscription `json:"subscription"`
	State        string        `json:"state"`
	Capabilities []string      `json:"capabilities"`
	SiteLimit    int           `json:"siteLimit"`
}

func (p Profile) Can(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

func (c *Client) Profile(ctx context.Context, token string) (Profile, error) {
	var p Profile
	if token == "" {
		return p, ErrNotAuthenticated
	}
	err := c.do(ctx, http.MethodGet, "/user/profile", token, nil, &p)
	return p, err
}

// Subscription returns nil for users on the free plan.
func (c *Client) Subscription(ctx context.Context, token string) (*Subscription, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	var out struct {
		Subscription *Subscription `json:"subscription"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/subscription", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Subscription, nil
}

type cancelResponse struct {
	Message           string `json:"message"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
}

// CancelSubscription stops renewal at the end of the paid period.
func (c *Client) CancelSubscription(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	return c.do(ctx, http.MethodPost, "/plans/cancel-subscription", token, nil, &cancelResponse{})
}

func (c *Client) ReactivateSubscription(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	return c.do(ctx, http.MethodPost, "/plans/reactivate-subscription", token, nil, &cancelResponse{})
}

type BillingAction string

const (
	ActionSubscribe  BillingAction = "subscribe"
	ActionManage     BillingAction = "manage"
	ActionReactivate BillingAction = "reactivate"
)

// NextBillingAction picks the billing button the UI should show.
func NextBillingAction(p Profile) BillingAction {
	if p.Plan == nil || strings.EqualFold(p.Plan.Name, "free") {
		return ActionSubscribe
	}
	if p.Subscription != nil && p.Subscription.CancelAtPeriodEnd {
		return ActionReactivate
	}
	return ActionManage
}
