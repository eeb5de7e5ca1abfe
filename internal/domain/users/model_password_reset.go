package users

import "time"

// PasswordReset is single-use: the row is deleted once the password is changed.
type PasswordReset struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Token     string `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (r PasswordReset) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
