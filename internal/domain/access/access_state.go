package access

import (
	"time"

	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/infra/payments"
)

// ComputeState derives the effective product state from the plan pointer and
// the mirrored subscription. sub may be nil.
func ComputeState(now time.Time, plan *plans.Plan, sub *billing.Subscription) State {
	if !plans.IsPaid(plan) {
		return StateFree
	}
	// Paid plan without a Stripe subscription was granted by an admin.
	if sub == nil {
		return StatePro
	}

	switch payments.NormalizeStripeStatus(&sub.Status) {
	case "past_due":
		return StatePastDue
	case "canceled":
		// Keep access until the paid-through date while the deletion webhook is pending.
		if sub.CurrentPeriodEnd != nil && now.Before(*sub.CurrentPeriodEnd) {
			return StateCanceling
		}
		return StateFree
	}

	if sub.CancelAtPeriodEnd {
		return StateCanceling
	}
	return StatePro
}
