package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/infra/payments"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (h *Handler) subscriptionDeleted(_ context.Context, log *zap.Logger, event stripe.Event) result {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return failed(OutcomeInvalidPayload, "decode subscription: %v", err)
	}
	st := payments.SubscriptionStateFrom(&sub)
	if st.ID == "" || st.CustomerID == "" {
		return failed(OutcomeInvalidPayload, "subscription payload missing id or customer")
	}

	user, err := findUserByCustomer(h.DB, st.CustomerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failed(OutcomeUserNotFound, "no user with stripe customer %s", st.CustomerID)
	}
	if err != nil {
		return failed(OutcomeStoreError, "load user: %v", err)
	}

	free, err := plans.FindByName(h.DB, plans.NameFree)
	if errors.Is(err, plans.ErrPlanNotFound) {
		return failed(OutcomePlanNotFound, "%v", err)
	}
	if err != nil {
		return failed(OutcomeStoreError, "load plan: %v", err)
	}

	st.Status = "canceled"
	st.CancelAtPeriodEnd = false
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := claim(tx, event); err != nil {
			return err
		}
		if err := plans.Assign(tx, user.ID, free.ID, plans.ReasonSubscriptionDeleted, event.ID); err != nil {
			return err
		}
		if err := upsertSubscription(tx, user.ID, st); err != nil {
			return fmt.Errorf("mirror subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return applyErr(err, "apply deletion: %v")
	}

	log.Info("plan downgraded after subscription deletion", zap.Uint("user_id", user.ID))
	return applied()
}
