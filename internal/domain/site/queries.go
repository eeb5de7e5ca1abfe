package site

import "gorm.io/gorm"

// OwnedQuery scopes site queries to one owner.
func OwnedQuery(db *gorm.DB, ownerID uint) *gorm.DB {
	return db.Model(&Site{}).Where("owner_id = ?", ownerID)
}

// FindOwned loads a site only if ownerID owns it; other owners' sites are
// reported as gorm.ErrRecordNotFound.
func FindOwned(db *gorm.DB, siteID, ownerID uint) (Site, error) {
	var s Site
	err := OwnedQuery(db, ownerID).Where("id = ?", siteID).First(&s).Error
	return s, err
}
