package billing

import (
	"net/http"

	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/infra/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) CancelSubscription(c *gin.Context) {
	h.setCancelAtPeriodEnd(c, true)
}

func (h *Handler) ReactivateSubscription(c *gin.Context) {
	h.setCancelAtPeriodEnd(c, false)
}

func (h *Handler) setCancelAtPeriodEnd(c *gin.Context, cancel bool) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	sub, err := billing.CurrentSubscription(h.DB, user.ID)
	if err != nil {
		logger.FromGin(c).Error("load subscription", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}
	if sub == nil || !sub.Live() {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
		return
	}
	if sub.CancelAtPeriodEnd == cancel {
		msg := "Subscription is already set to cancel at period end"
		if !cancel {
			msg = "Subscription is not scheduled for cancellation"
		}
		c.JSON(http.StatusConflict, gin.H{"error": msg})
		return
	}

	state, err := h.Gateway.SetCancelAtPeriodEnd(c.Request.Context(), sub.StripeSubscriptionID, cancel)
	if err != nil {
		stripeFailed(c, "Failed to update subscription", err)
		return
	}

	updates := map[string]interface{}{"cancel_at_period_end": state.CancelAtPeriodEnd}
	if state.Status != "" {
		updates["status"] = state.Status
	}
	if !state.CurrentPeriodEnd.IsZero() {
		updates["current_period_end"] = state.CurrentPeriodEnd
	}
	// Stripe already holds the change; a failed mirror write is repaired by the
	// customer.subscription.updated event that follows.
	if err := h.DB.Model(&billing.Subscription{}).Where("id = ?", sub.ID).Updates(updates).Error; err != nil {
		logger.FromGin(c).Error("mirror subscription", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	msg := "Subscription will be canceled at the end of the billing period"
	if !cancel {
		msg = "Subscription reactivated"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "cancelAtPeriodEnd": state.CancelAtPeriodEnd})
}
