package billing

import "time"

// StripeEvent records handled webhook deliveries so redeliveries are skipped.
type StripeEvent struct {
	EventID   string `gorm:"primaryKey;column:event_id"`
	Type      string `gorm:"not null"`
	CreatedAt time.Time
}

// WebhookFailure is the dead-letter row for an event that was acknowledged
// but could not be applied.
type WebhookFailure struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"index" json:"eventId"`
	EventType string    `json:"eventType"`
	Outcome   string    `gorm:"index" json:"outcome"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}
