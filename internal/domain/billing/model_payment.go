package billing

import (
	"time"

	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/domain/users"
)

type Payment struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	UserID               uint        `gorm:"index" json:"userId"`
	User                 users.User  `json:"-"`
	PlanID               *uint       `json:"planId"`
	Plan                 *plans.Plan `json:"plan,omitempty"`
	StripeSessionID      string      `gorm:"uniqueIndex" json:"stripeSessionId"`
	StripeSubscriptionID *string     `json:"stripeSubscriptionId"`
	Amount               float64     `json:"amount"`
	Currency             string      `json:"currency"`
	Status               string      `json:"status"`
	CreatedAt            time.Time   `json:"createdAt"`
}
