package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/payments"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (h *Handler) checkoutCompleted(ctx context.Context, log *zap.Logger, event stripe.Event) result {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return failed(OutcomeInvalidPayload, "decode checkout session: %v", err)
	}

	email := session.CustomerEmail
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}
	if email == "" {
		return failed(OutcomeInvalidPayload, "checkout session %s has no customer email", session.ID)
	}

	user, err := findUserByEmail(h.DB, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failed(OutcomeUserNotFound, "no user with email %s", email)
	}
	if err != nil {
		return failed(OutcomeStoreError, "load user: %v", err)
	}

	pro, err := plans.FindByName(h.DB, plans.NamePro)
	if errors.Is(err, plans.ErrPlanNotFound) {
		return failed(OutcomePlanNotFound, "%v", err)
	}
	if err != nil {
		return failed(OutcomeStoreError, "load plan: %v", err)
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := claim(tx, event); err != nil {
			return err
		}
		if err := plans.Assign(tx, user.ID, pro.ID, plans.ReasonCheckoutCompleted, event.ID); err != nil {
			return err
		}
		var subID *string
		if session.Subscription != nil && session.Subscription.ID != "" {
			subID = &session.Subscription.ID
			st := payments.SubscriptionState{ID: session.Subscription.ID, Status: "active"}
			if session.Subscription.Status != "" {
				st = payments.SubscriptionStateFrom(session.Subscription)
			}
			if err := upsertSubscription(tx, user.ID, st); err != nil {
				return fmt.Errorf("mirror subscription: %w", err)
			}
		}
		if session.ID != "" {
			if err := recordPayment(tx, user.ID, pro.ID, subID, &session); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return applyErr(err, "apply checkout: %v")
	}
	log.Info("plan upgraded from checkout", zap.Uint("user_id", user.ID), zap.Uint("plan_id", pro.ID))

	return h.syncCustomerID(ctx, log, user, email, &session)
}

// syncCustomerID re-reads the customer id Stripe holds for the email, since
// checkout can create a customer other than the one made at registration.
func (h *Handler) syncCustomerID(ctx context.Context, log *zap.Logger, user users.User, email string, session *stripe.CheckoutSession) result {
	customerID, err := h.Gateway.FindCustomerIDByEmail(ctx, email)
	if err != nil {
		return failed(OutcomeCustomerSyncFailed, "list customers for %s: %v", email, err)
	}
	if customerID == "" && session.Customer != nil {
		customerID = session.Customer.ID
	}
	if customerID == "" {
		return failed(OutcomeCustomerSyncFailed, "stripe has no customer for %s", email)
	}
	if user.StripeCustomerID != nil && *user.StripeCustomerID == customerID {
		return applied()
	}

	if err := h.DB.Model(&users.User{}).
		Where("id = ?", user.ID).
		Update("stripe_customer_id", customerID).Error; err != nil {
		return failed(OutcomeCustomerSyncFailed, "store customer %s: %v", customerID, err)
	}
	log.Info("stripe customer id refreshed", zap.Uint("user_id", user.ID), zap.String("customer_id", customerID))
	return applied()
}

func recordPayment(tx *gorm.DB, userID, planID uint, subscriptionID *string, session *stripe.CheckoutSession) error {
	status := string(session.PaymentStatus)
	if status == "" {
		status = "paid"
	}
	payment := billing.Payment{
		UserID:               userID,
		PlanID:               &planID,
		StripeSessionID:      session.ID,
		StripeSubscriptionID: subscriptionID,
		Amount:               float64(session.AmountTotal) / 100.0,
		Currency:             string(session.Currency),
		Status:               status,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&payment).Error; err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	return nil
}
