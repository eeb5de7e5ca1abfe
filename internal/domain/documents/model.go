package documents

import (
	"time"

	"legalforge-api/internal/domain/site"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypePrivacyPolicy = "privacy_policy"
	TypeTermsOfUse    = "terms_of_use"
	TypeCookiePolicy  = "cookie_policy"
)

func ValidType(t string) bool {
	switch t {
	case TypePrivacyPolicy, TypeTermsOfUse, TypeCookiePolicy:
		return true
	}
	return false
}

type Document struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PublicID string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"publicId"`
	SiteID   uint      `gorm:"not null;index" json:"siteId"`
	Site     site.Site `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title    string    `gorm:"not null" json:"title"`
	Content  string    `gorm:"type:text" json:"content"`
	Type     string    `gorm:"type:varchar(32);not null;index" json:"type"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns the opaque id used by the public viewer.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.PublicID == "" {
		d.PublicID = uuid.NewString()
	}
	return nil
}
