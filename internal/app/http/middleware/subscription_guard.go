package middleware

import (
	"net/http"
	"time"

	"legalforge-api/internal/domain/access"
	"legalforge-api/internal/domain/site"
	"legalforge-api/internal/infra/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequireSiteQuota rejects site creation once the user owns as many sites as
// their plan allows.
func RequireSiteQuota(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		snap, err := access.Load(db, userID, time.Now())
		if err != nil {
			logger.FromGin(c).Error("load access snapshot", zap.Uint("user_id", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
			return
		}

		limit := snap.Policy.SiteLimit
		if limit == 0 {
			c.Next()
			return
		}

		var owned int64
		if err := db.Model(&site.Site{}).Where("owner_id = ?", userID).Count(&owned).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to count sites"})
			return
		}
		if owned >= int64(limit) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Site limit reached for your plan, upgrade to add more sites",
				"limit": limit,
			})
			return
		}

		c.Next()
	}
}
