package billing

import (
	"errors"

	"gorm.io/gorm"
)

// CurrentSubscription returns the user's most recently touched subscription
// mirror, or nil when they never subscribed.
func CurrentSubscription(db *gorm.DB, userID uint) (*Subscription, error) {
	var sub Subscription
	err := db.Where("user_id = ?", userID).Order("updated_at DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
