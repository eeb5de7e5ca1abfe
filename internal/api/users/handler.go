package users

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"legalforge-api/internal/domain/access"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxFieldLen = 120

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// loadUser answers the request itself when the user cannot be loaded.
func (h *Handler) loadUser(c *gin.Context) (users.User, bool) {
	var user users.User
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return user, false
	}
	err := h.DB.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return user, false
	}
	if err != nil {
		logger.FromGin(c).Error("load user", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return user, false
	}
	return user, true
}

func (h *Handler) snapshot(c *gin.Context, userID uint) (access.Snapshot, bool) {
	snap, err := access.Load(h.DB, userID, time.Now())
	if err != nil {
		logger.FromGin(c).Error("load billing snapshot", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return snap, false
	}
	return snap, true
}

func (h *Handler) GetProfile(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, BuildProfile(user, snap))
}

// GetSubscription answers {"subscription": null} for free-tier users.
func (h *Handler) GetSubscription(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": BuildSubscriptionDTO(snap.Plan, snap.Subscription)})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var body UpdateProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updates := map[string]interface{}{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" || len(name) > maxFieldLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name must be between 1 and 120 characters"})
			return
		}
		updates["name"] = name
	}
	if body.Identity != nil {
		identity := strings.TrimSpace(*body.Identity)
		if len(identity) > maxFieldLen {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Identity is too long"})
			return
		}
		updates["identity"] = identity
	}

	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	if len(updates) > 0 {
		if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
			logger.FromGin(c).Error("update profile", zap.Uint("user_id", user.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		if v, ok := updates["name"].(string); ok {
			user.Name = v
		}
		if v, ok := updates["identity"].(string); ok {
			user.Identity = v
		}
	}

	snap, ok := h.snapshot(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, BuildProfile(user, snap))
}
