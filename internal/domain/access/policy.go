package access

import (
	"time"

	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/plans"
)

type Policy struct {
	State        State
	Capabilities []string
	SiteLimit    int
}

func ComputePolicy(now time.Time, plan *plans.Plan, sub *billing.Subscription) Policy {
	state := ComputeState(now, plan, sub)

	return Policy{
		State:        state,
		Capabilities: CapabilitiesFor(state),
		SiteLimit:    SiteLimit(state),
	}
}
