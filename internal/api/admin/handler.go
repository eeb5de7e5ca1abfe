package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	userapi "legalforge-api/internal/api/users"
	"legalforge-api/internal/domain/access"
	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Now: time.Now}
}

type AdminUser struct {
	userapi.UserDTO
	PlanName *string `json:"planName"`
}

type AdminPlanChange struct {
	ID            uint      `json:"id"`
	FromPlanID    *uint     `json:"fromPlanId"`
	ToPlanID      uint      `json:"toPlanId"`
	Reason        string    `json:"reason"`
	StripeEventID *string   `json:"stripeEventId"`
	CreatedAt     time.Time `json:"createdAt"`
}

type AdminStats struct {
	TotalUsers    int64            `json:"totalUsers"`
	TotalRevenue  float64          `json:"totalRevenue"`
	RecentRevenue float64          `json:"recentRevenue"`
	UsersPerPlan  map[string]int64 `json:"usersPerPlan"`
	OpenFailures  int64            `json:"webhookFailures"`
}

// GET /admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	type row struct {
		users.User
		PlanName *string
	}
	var rows []row
	err := h.DB.Model(&users.User{}).
		Select("users.*, plans.name AS plan_name").
		Joins("LEFT JOIN user_plans ON user_plans.user_id = users.id").
		Joins("LEFT JOIN plans ON plans.id = user_plans.plan_id").
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		logger.FromGin(c).Error("list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	out := make([]AdminUser, 0, len(rows))
	for _, r := range rows {
		out = append(out, AdminUser{UserDTO: userapi.BuildUserDTO(r.User), PlanName: r.PlanName})
	}
	c.JSON(http.StatusOK, out)
}

// GET /admin/users/:id returns the profile as the user sees it plus the
// payment and plan history.
func (h *Handler) GetUser(c *gin.Context) {
	u, ok := h.userFromParam(c)
	if !ok {
		return
	}

	snap, err := access.Load(h.DB, u.ID, h.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return
	}

	payments := []billing.Payment{}
	if err := h.DB.Preload("Plan").Where("user_id = ?", u.ID).Order("created_at DESC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	var changes []plans.PlanChange
	if err := h.DB.Where("user_id = ?", u.ID).Order("id ASC").Find(&changes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plan history"})
		return
	}
	history := make([]AdminPlanChange, 0, len(changes))
	for _, pc := range changes {
		history = append(history, AdminPlanChange{
			ID:            pc.ID,
			FromPlanID:    pc.FromPlanID,
			ToPlanID:      pc.ToPlanID,
			Reason:        pc.Reason,
			StripeEventID: pc.StripeEventID,
			CreatedAt:     pc.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        userapi.BuildProfile(u, snap),
		"payments":    payments,
		"planChanges": history,
	})
}

// PUT /admin/users/:id/plan moves the plan pointer by hand. It does not touch
// Stripe; a paid plan granted here has no subscription behind it.
func (h *Handler) SetUserPlan(c *gin.Context) {
	u, ok := h.userFromParam(c)
	if !ok {
		return
	}
	var body struct {
		PlanID uint `json:"planId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "planId is required"})
		return
	}

	var plan plans.Plan
	if err := h.DB.First(&plan, body.PlanID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	if err := plans.Assign(h.DB, u.ID, plan.ID, plans.ReasonAdmin, ""); err != nil {
		logger.FromGin(c).Error("admin plan change", zap.Uint("user_id", u.ID), zap.Uint("plan_id", plan.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change plan"})
		return
	}
	logger.FromGin(c).Info("plan changed by admin",
		zap.Uint("user_id", u.ID),
		zap.String("plan", plan.Name),
		zap.Uint("admin_id", c.GetUint("user_id")),
	)
	c.JSON(http.StatusOK, gin.H{"message": "Plan updated", "plan": userapi.BuildPlanDTO(&plan)})
}

// GET /admin/stats
func (h *Handler) Stats(c *gin.Context) {
	var stats AdminStats
	db := h.DB

	if err := db.Model(&users.User{}).Count(&stats.TotalUsers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	db.Model(&billing.Payment{}).
		Where("status = ?", "paid").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalRevenue)
	db.Model(&billing.Payment{}).
		Where("status = ? AND created_at >= ?", "paid", h.Now().AddDate(0, 0, -30)).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.RecentRevenue)
	db.Model(&billing.WebhookFailure{}).Count(&stats.OpenFailures)

	type planCount struct {
		Name  *string
		Count int64
	}
	var counts []planCount
	db.Table("users").
		Select("plans.name AS name, COUNT(users.id) AS count").
		Joins("LEFT JOIN user_plans ON user_plans.user_id = users.id").
		Joins("LEFT JOIN plans ON plans.id = user_plans.plan_id").
		Group("plans.name").
		Scan(&counts)

	stats.UsersPerPlan = map[string]int64{}
	for _, pc := range counts {
		name := "none"
		if pc.Name != nil {
			name = *pc.Name
		}
		stats.UsersPerPlan[name] = pc.Count
	}

	c.JSON(http.StatusOK, stats)
}

// GET /admin/webhook-failures?outcome=user_not_found
func (h *Handler) ListWebhookFailures(c *gin.Context) {
	q := h.DB.Order("created_at DESC").Limit(200)
	if outcome := c.Query("outcome"); outcome != "" {
		q = q.Where("outcome = ?", outcome)
	}
	failures := []billing.WebhookFailure{}
	if err := q.Find(&failures).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load webhook failures"})
		return
	}
	c.JSON(http.StatusOK, failures)
}

func (h *Handler) userFromParam(c *gin.Context) (users.User, bool) {
	var u users.User
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return u, false
	}
	err = h.DB.First(&u, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return u, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return u, false
	}
	return u, true
}
