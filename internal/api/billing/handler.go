package billing

import (
	"errors"
	"net/http"
	"strings"

	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/logger"
	"legalforge-api/internal/infra/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the authenticated billing endpoints. Stripe is only reached
// through Gateway; resulting plan changes arrive later via the webhook.
type Handler struct {
	DB      *gorm.DB
	Gateway payments.Gateway
	AppURL  string
}

func NewHandler(db *gorm.DB, gateway payments.Gateway, appURL string) *Handler {
	if appURL == "" {
		appURL = "http://localhost:3000"
	}
	return &Handler{DB: db, Gateway: gateway, AppURL: strings.TrimRight(appURL, "/")}
}

func (h *Handler) currentUser(c *gin.Context) (users.User, bool) {
	var user users.User
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return user, false
	}
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		} else {
			logger.FromGin(c).Error("load user", zap.Uint("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		}
		return user, false
	}
	return user, true
}

// stripeFailed answers a failed gateway call.
func stripeFailed(c *gin.Context, msg string, err error) {
	if errors.Is(err, payments.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return
	}
	logger.FromGin(c).Error(msg, zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": msg})
}
