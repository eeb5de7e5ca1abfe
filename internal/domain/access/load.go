package access

import (
	"fmt"
	"time"

	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/plans"

	"gorm.io/gorm"
)

// Snapshot is what the API knows about a user's billing at one instant.
type Snapshot struct {
	Plan         *plans.Plan
	Subscription *billing.Subscription
	Policy       Policy
}

func Load(db *gorm.DB, userID uint, now time.Time) (Snapshot, error) {
	pointer, err := plans.CurrentPointer(db, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load plan: %w", err)
	}
	sub, err := billing.CurrentSubscription(db, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load subscription: %w", err)
	}

	var plan *plans.Plan
	if pointer != nil {
		plan = &pointer.Plan
		if sub != nil && grantedAfterEnd(pointer, sub) {
			sub = nil
		}
	}
	return Snapshot{
		Plan:         plan,
		Subscription: sub,
		Policy:       ComputePolicy(now, plan, sub),
	}, nil
}

// grantedAfterEnd reports whether a paid plan pointer was written after the
// subscription stopped billing, as an admin grant does. Such a subscription
// no longer describes the plan and is left out of the snapshot.
func grantedAfterEnd(up *plans.UserPlan, sub *billing.Subscription) bool {
	if !plans.IsPaid(&up.Plan) || sub.Live() {
		return false
	}
	ended := sub.UpdatedAt
	if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(ended) {
		ended = *sub.CurrentPeriodEnd
	}
	return up.UpdatedAt.After(ended)
}
