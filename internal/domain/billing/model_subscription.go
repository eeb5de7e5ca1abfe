package billing

import "time"

// Subscription mirrors the Stripe subscription object for one user.
type Subscription struct {
	ID                   uint   `gorm:"primaryKey"`
	UserID               uint   `gorm:"not null;index"`
	StripeSubscriptionID string `gorm:"column:stripe_subscription_id;not null;uniqueIndex"`
	Status               string `gorm:"type:varchar(32);not null"`
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Live reports whether the subscription still bills or is inside a paid period.
func (s Subscription) Live() bool {
	switch s.Status {
	case "active", "trialing", "past_due":
		return true
	}
	return false
}
