package users

import (
	"legalforge-api/internal/domain/access"
	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/payments"
)

func BuildUserDTO(u users.User) UserDTO {
	return UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Identity:         u.Identity,
		Role:             u.Role,
		AuthProvider:     u.AuthProvider,
		StripeCustomerID: u.StripeCustomerID,
		LastLogin:        u.LastLogin,
		CreatedAt:        u.CreatedAt,
	}
}

func BuildPlanDTO(p *plans.Plan) *PlanDTO {
	if p == nil {
		return nil
	}
	return &PlanDTO{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Currency: p.Currency,
		Interval: p.Interval,
	}
}

// BuildSubscriptionDTO returns nil for free-tier users, including those whose
// last subscription has already been deleted.
func BuildSubscriptionDTO(p *plans.Plan, s *billing.Subscription) *SubscriptionDTO {
	if s == nil || !plans.IsPaid(p) {
		return nil
	}
	return &SubscriptionDTO{
		ID:                s.StripeSubscriptionID,
		Status:            payments.NormalizeStripeStatus(&s.Status),
		CurrentPeriodEnd:  s.CurrentPeriodEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
}

func BuildProfile(u users.User, snap access.Snapshot) ProfileResponse {
	return ProfileResponse{
		UserDTO:      BuildUserDTO(u),
		Plan:         BuildPlanDTO(snap.Plan),
		Subscription: BuildSubscriptionDTO(snap.Plan, snap.Subscription),
		State:        string(snap.Policy.State),
		Capabilities: snap.Policy.Capabilities,
		SiteLimit:    snap.Policy.SiteLimit,
	}
}
