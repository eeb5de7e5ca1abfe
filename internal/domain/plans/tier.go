package plans

import "strings"

// Plan names as seeded; lookups are case-insensitive.
const (
	NameFree = "free"
	NamePro  = "Pro"
)

// Reasons recorded on PlanChange rows.
const (
	ReasonRegistration        = "registration"
	ReasonCheckoutCompleted   = "checkout_completed"
	ReasonSubscriptionDeleted = "subscription_deleted"
	ReasonAdmin               = "admin"
)

// IsPaid reports whether the plan is anything other than the free tier.
func IsPaid(p *Plan) bool {
	if p == nil {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(p.Name), NameFree)
}
