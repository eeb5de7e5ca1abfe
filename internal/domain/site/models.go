package site

import "time"

type Site struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	OwnerID      uint   `gorm:"not null;index" json:"ownerId"`
	Name         string `gorm:"not null" json:"name"`
	Domain       string `gorm:"not null;index" json:"domain"`
	Language     string `gorm:"type:varchar(8);not null;default:'en'" json:"language"`
	Legislation  string `gorm:"type:varchar(16);not null" json:"legislation"`
	Observations string `gorm:"type:text" json:"observations"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
