package plans

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var ErrPlanNotFound = errors.New("plan not found")

// FindByName looks a plan up by name, ignoring case.
func FindByName(db *gorm.DB, name string) (Plan, error) {
	var p Plan
	err := db.Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, fmt.Errorf("%w: %q", ErrPlanNotFound, name)
	}
	return p, err
}

// CurrentPointer returns the user's plan pointer with its plan preloaded, or
// nil when the user has no pointer yet.
func CurrentPointer(db *gorm.DB, userID uint) (*UserPlan, error) {
	var up UserPlan
	err := db.Preload("Plan").Where("user_id = ?", userID).First(&up).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// CurrentPlan returns the plan the user's pointer refers to, or nil when the
// user has no pointer yet.
func CurrentPlan(db *gorm.DB, userID uint) (*Plan, error) {
	up, err := CurrentPointer(db, userID)
	if err != nil || up == nil {
		return nil, err
	}
	return &up.Plan, nil
}

// Assign overwrites the user's plan pointer and appends the change to the
// ledger in a single transaction. Assigning the current plan is a no-op.
func Assign(db *gorm.DB, userID, planID uint, reason, stripeEventID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var current UserPlan
		err := tx.Where("user_id = ?", userID).First(&current).Error

		var from *uint
		switch {
		case err == nil:
			if current.PlanID == planID {
				return nil
			}
			prev := current.PlanID
			from = &prev
			if err := tx.Model(&UserPlan{}).
				Where("id = ?", current.ID).
				Update("plan_id", planID).Error; err != nil {
				return fmt.Errorf("update plan pointer: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&UserPlan{UserID: userID, PlanID: planID}).Error; err != nil {
				return fmt.Errorf("create plan pointer: %w", err)
			}
		default:
			return fmt.Errorf("load plan pointer: %w", err)
		}

		change := PlanChange{
			UserID:     userID,
			FromPlanID: from,
			ToPlanID:   planID,
			Reason:     reason,
		}
		if stripeEventID != "" {
			change.StripeEventID = &stripeEventID
		}
		if err := tx.Create(&change).Error; err != nil {
			return fmt.Errorf("append plan change: %w", err)
		}
		return nil
	})
}
