package billing

import (
	"net/http"
	"strconv"
	"time"

	"legalforge-api/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

const maxHistory = 100

type PaymentDTO struct {
	ID             uint      `json:"id"`
	PlanName       *string   `json:"planName"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	SubscriptionID *string   `json:"subscriptionId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// GET /payments?limit=20, newest first.
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	limit := maxHistory
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		if n < limit {
			limit = n
		}
	}

	var rows []billing.Payment
	if err := h.DB.
		Preload("Plan").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	out := make([]PaymentDTO, 0, len(rows))
	for _, p := range rows {
		dto := PaymentDTO{
			ID:             p.ID,
			Amount:         p.Amount,
			Currency:       p.Currency,
			Status:         p.Status,
			SubscriptionID: p.StripeSubscriptionID,
			CreatedAt:      p.CreatedAt,
		}
		if p.Plan != nil {
			name := p.Plan.Name
			dto.PlanName = &name
		}
		out = append(out, dto)
	}
	c.JSON(http.StatusOK, out)
}
