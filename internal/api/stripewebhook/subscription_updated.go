package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"

	"legalforge-api/internal/infra/payments"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// subscriptionUpdated refreshes the mirror only. Plan changes arrive through
// checkout completion and deletion.
func (h *Handler) subscriptionUpdated(_ context.Context, log *zap.Logger, event stripe.Event) result {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return failed(OutcomeInvalidPayload, "decode subscription: %v", err)
	}
	st := payments.SubscriptionStateFrom(&sub)
	if st.ID == "" {
		return failed(OutcomeInvalidPayload, "subscription payload missing id")
	}

	user, err := userForSubscription(h.DB, st, sub.Metadata)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failed(OutcomeUserNotFound, "no user for subscription %s", st.ID)
	}
	if err != nil {
		return failed(OutcomeStoreError, "load user: %v", err)
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := claim(tx, event); err != nil {
			return err
		}
		return upsertSubscription(tx, user.ID, st)
	})
	if err != nil {
		return applyErr(err, "mirror subscription: %v")
	}

	log.Info("subscription mirror refreshed",
		zap.Uint("user_id", user.ID),
		zap.String("status", st.Status),
		zap.Bool("cancel_at_period_end", st.CancelAtPeriodEnd),
	)
	return applied()
}
