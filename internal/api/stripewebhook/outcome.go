package stripewebhooks

import (
	"errors"
	"fmt"

	"legalforge-api/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Outcome is the reconciliation result of one handled event.
type Outcome string

const (
	OutcomeApplied            Outcome = "applied"
	OutcomeDuplicate          Outcome = "duplicate"
	OutcomeUserNotFound       Outcome = "user_not_found"
	OutcomePlanNotFound       Outcome = "plan_not_found"
	OutcomeCustomerSyncFailed Outcome = "customer_sync_failed"
	OutcomeInvalidPayload     Outcome = "invalid_payload"
	OutcomeStoreError         Outcome = "store_error"
)

// Retryable outcomes are answered with 500 and leave no trace, so Stripe's
// redelivery applies the event from scratch.
func (o Outcome) Retryable() bool { return o == OutcomeStoreError }

// DeadLettered outcomes are acknowledged but stored in webhook_failures.
func (o Outcome) DeadLettered() bool {
	switch o {
	case OutcomeUserNotFound, OutcomePlanNotFound, OutcomeCustomerSyncFailed, OutcomeInvalidPayload:
		return true
	}
	return false
}

type result struct {
	Outcome Outcome
	Detail  string
}

func applied() result { return result{Outcome: OutcomeApplied} }

func failed(o Outcome, format string, args ...interface{}) result {
	return result{Outcome: o, Detail: fmt.Sprintf(format, args...)}
}

var errClaimed = errors.New("stripe event already claimed")

// claim inserts the event row inside the transaction that applies the event.
// The primary key makes a second delivery of the same id wait for the first
// and then insert nothing, so only one of them applies.
func claim(tx *gorm.DB, event stripe.Event) error {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&billing.StripeEvent{EventID: event.ID, Type: string(event.Type)})
	if res.Error != nil {
		return fmt.Errorf("claim stripe event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errClaimed
	}
	return nil
}

// applyErr turns the error of an apply transaction into its outcome.
func applyErr(err error, format string) result {
	if errors.Is(err, errClaimed) {
		return result{Outcome: OutcomeDuplicate}
	}
	return failed(OutcomeStoreError, format, err)
}

// alreadyHandled is the cheap check before any Stripe or lookup work; claim
// is what makes application exactly-once.
func alreadyHandled(db *gorm.DB, eventID string) (bool, error) {
	var n int64
	if err := db.Model(&billing.StripeEvent{}).Where("event_id = ?", eventID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// record marks the event handled and, for acknowledged failures, appends the
// dead-letter row.
func record(db *gorm.DB, event stripe.Event, res result) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&billing.StripeEvent{EventID: event.ID, Type: string(event.Type)}).Error; err != nil {
			return fmt.Errorf("record stripe event: %w", err)
		}
		if !res.Outcome.DeadLettered() {
			return nil
		}
		if err := tx.Create(&billing.WebhookFailure{
			EventID:   event.ID,
			EventType: string(event.Type),
			Outcome:   string(res.Outcome),
			Detail:    res.Detail,
		}).Error; err != nil {
			return fmt.Errorf("dead-letter stripe event: %w", err)
		}
		return nil
	})
}
