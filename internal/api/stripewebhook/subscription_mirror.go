package stripewebhooks

import (
	"errors"
	"strconv"
	"strings"

	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/payments"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertSubscription writes the mirror row keyed by the Stripe subscription id.
func upsertSubscription(tx *gorm.DB, userID uint, st payments.SubscriptionState) error {
	row := billing.Subscription{
		UserID:               userID,
		StripeSubscriptionID: st.ID,
		Status:               st.Status,
		CancelAtPeriodEnd:    st.CancelAtPeriodEnd,
	}
	columns := []string{"user_id", "status", "cancel_at_period_end", "updated_at"}
	if !st.CurrentPeriodEnd.IsZero() {
		end := st.CurrentPeriodEnd
		row.CurrentPeriodEnd = &end
		columns = append(columns, "current_period_end")
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&row).Error
}

func findUserByEmail(db *gorm.DB, email string) (users.User, error) {
	var u users.User
	err := db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	return u, err
}

func findUserByCustomer(db *gorm.DB, customerID string) (users.User, error) {
	var u users.User
	err := db.Where("stripe_customer_id = ?", customerID).First(&u).Error
	return u, err
}

// userForSubscription resolves the owner of a subscription by metadata, then
// by an existing mirror row, then by Stripe customer.
func userForSubscription(db *gorm.DB, st payments.SubscriptionState, metadata map[string]string) (users.User, error) {
	var u users.User
	if id := userIDFromMetadata(metadata); id != 0 {
		err := db.First(&u, id).Error
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return u, err
		}
	}

	var mirror billing.Subscription
	err := db.Where("stripe_subscription_id = ?", st.ID).First(&mirror).Error
	switch {
	case err == nil:
		err = db.First(&u, mirror.UserID).Error
		return u, err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return u, err
	}

	if st.CustomerID == "" {
		return u, gorm.ErrRecordNotFound
	}
	return findUserByCustomer(db, st.CustomerID)
}

func userIDFromMetadata(md map[string]string) uint {
	s := md["user_id"]
	if s == "" {
		return 0
	}
	uid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(uid)
}
