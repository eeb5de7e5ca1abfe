package users

import "time"

type UserDTO struct {
	ID               uint       `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Identity         string     `json:"identity"`
	Role             string     `json:"role"`
	AuthProvider     string     `json:"authProvider"`
	StripeCustomerID *string    `json:"stripeCustomerId"`
	LastLogin        *time.Time `json:"lastLogin"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type ProfileResponse struct {
	UserDTO

	Plan         *PlanDTO         `json:"plan"`
	Subscription *SubscriptionDTO `json:"subscription"`

	// Derived access, recomputed on every read.
	State        string   `json:"state"`
	Capabilities []string `json:"capabilities"`
	SiteLimit    int      `json:"siteLimit"` // 0 = unlimited
}

type PlanDTO struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
}

type SubscriptionDTO struct {
	ID                string     `json:"id"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Identity *string `json:"identity"`
}
