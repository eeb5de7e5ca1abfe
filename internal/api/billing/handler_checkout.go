package billing

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"legalforge-api/internal/domain/access"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/infra/logger"
	"legalforge-api/internal/infra/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type checkoutRequest struct {
	PlanID uint `json:"planId"`
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.PlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid planId"})
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var plan plans.Plan
	if err := h.DB.First(&plan, body.PlanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return
	}
	if !plans.IsPaid(&plan) || plan.StripePriceID == nil || *plan.StripePriceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan cannot be purchased"})
		return
	}

	snap, err := access.Load(h.DB, user.ID, time.Now())
	if err != nil {
		logger.FromGin(c).Error("load billing snapshot", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plan"})
		return
	}
	if plans.IsPaid(snap.Plan) && snap.Subscription != nil && snap.Subscription.Live() {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have an active subscription, manage it from the billing portal"})
		return
	}

	uid := strconv.FormatUint(uint64(user.ID), 10)
	session, err := h.Gateway.CreateCheckoutSession(c.Request.Context(), payments.CheckoutRequest{
		PriceID:           *plan.StripePriceID,
		CustomerEmail:     user.Email,
		ClientReferenceID: uid,
		SuccessURL:        h.AppURL + "/account?checkout=success",
		CancelURL:         h.AppURL + "/account?checkout=canceled",
		Metadata: map[string]string{
			"user_id": uid,
			"plan_id": strconv.FormatUint(uint64(plan.ID), 10),
		},
	})
	if err != nil {
		stripeFailed(c, "Failed to create checkout session", err)
		return
	}

	logger.FromGin(c).Info("checkout session created",
		zap.Uint("user_id", user.ID),
		zap.Uint("plan_id", plan.ID),
		zap.String("session_id", session.ID),
	)
	c.JSON(http.StatusOK, gin.H{"sessionId": session.ID, "url": session.URL})
}

// CreatePortalSession hands the user to Stripe's billing portal. Nothing is
// written locally; the portal's effects come back as webhook events.
func (h *Handler) CreatePortalSession(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No Stripe customer yet (subscribe first)"})
		return
	}

	url, err := h.Gateway.CreatePortalSession(c.Request.Context(), *user.StripeCustomerID, h.AppURL+"/account")
	if err != nil {
		stripeFailed(c, "Could not create billing portal session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
