package plans

import "time"

type Plan struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"not null;uniqueIndex:idx_plans_name" json:"name"`
	Price         float64 `gorm:"not null;default:0" json:"price"`
	Currency      string  `gorm:"type:varchar(3);not null;default:'eur'" json:"currency"`
	Interval      string  `json:"interval"`
	StripePriceID *string `gorm:"column:stripe_price_id;uniqueIndex:idx_plans_stripe_price_id" json:"stripePriceId,omitempty"`
}

// UserPlan is the plan pointer: exactly one row per user, overwritten on every change.
type UserPlan struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_user_plans_user_id"`
	PlanID    uint `gorm:"not null;index"`
	Plan      Plan `gorm:"foreignKey:PlanID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanChange is an append-only history of plan pointer writes.
type PlanChange struct {
	ID            uint  `gorm:"primaryKey"`
	UserID        uint  `gorm:"not null;index"`
	FromPlanID    *uint `gorm:"column:from_plan_id"`
	ToPlanID      uint  `gorm:"column:to_plan_id;not null"`
	Reason        string
	StripeEventID *string
	CreatedAt     time.Time
}
