package plans

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/infra/logger"
	"legalforge-api/internal/infra/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB        *gorm.DB
	Gateway   payments.Gateway
	ProductID string
}

func NewHandler(db *gorm.DB, gateway payments.Gateway, productID string) *Handler {
	return &Handler{DB: db, Gateway: gateway, ProductID: productID}
}

// SyncPlansFromStripe upserts one plan per plan name from the active
// recurring prices. When a name has several prices (monthly and yearly, or
// an old and a replacement price) one of them is chosen by preferredPrice and
// the rest count as skipped. The whole sync is one transaction.
func (h *Handler) SyncPlansFromStripe(c *gin.Context) {
	prices, err := h.Gateway.ListRecurringPrices(c.Request.Context())
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stripe key not configured"})
			return
		}
		logger.FromGin(c).Error("list stripe prices", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch Stripe prices", "details": err.Error()})
		return
	}

	skipped := 0
	chosen := map[string]payments.Price{}
	var order []string
	for _, p := range prices {
		if h.ProductID != "" && p.ProductID != h.ProductID {
			skipped++
			continue
		}
		if p.Metadata["visible"] == "false" {
			skipped++
			continue
		}

		key := strings.ToLower(strings.TrimSpace(planName(p)))
		current, seen := chosen[key]
		if !seen {
			chosen[key] = p
			order = append(order, key)
			continue
		}
		skipped++
		if preferredPrice(p, current) {
			chosen[key] = p
		}
	}

	created, updated := 0, 0
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		for _, key := range order {
			p := chosen[key]
			isNew, err := upsertPlan(tx, p)
			if err != nil {
				return err
			}
			if isNew {
				created++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		logger.FromGin(c).Error("sync plans", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync plans", "details": err.Error()})
		return
	}
	synced := created + updated

	logger.FromGin(c).Info("plans synced from stripe",
		zap.Int("synced", synced),
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped),
	)
	c.JSON(http.StatusOK, gin.H{
		"synced":  synced,
		"created": created,
		"updated": updated,
		"skipped": skipped,
	})
}

func planName(p payments.Price) string {
	if v := p.Metadata["plan"]; v != "" {
		return v
	}
	return p.ProductName
}

// preferredPrice reports whether candidate should replace current as the
// price of their shared plan: a price tagged primary=true wins, then a
// monthly price, otherwise the first one listed stays.
func preferredPrice(candidate, current payments.Price) bool {
	candPrimary := candidate.Metadata["primary"] == "true"
	curPrimary := current.Metadata["primary"] == "true"
	if candPrimary != curPrimary {
		return candPrimary
	}
	candMonthly := candidate.Interval == "month"
	curMonthly := current.Interval == "month"
	if candMonthly != curMonthly {
		return candMonthly
	}
	return false
}

// upsertPlan writes p onto the plan that already carries its price id, or
// else onto the plan with the same name, creating one only when neither
// exists.
func upsertPlan(tx *gorm.DB, p payments.Price) (bool, error) {
	name := planName(p)
	priceID := p.ID

	var existing plans.Plan
	err := tx.Where("stripe_price_id = ?", priceID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing, err = plans.FindByName(tx, name)
	}
	switch {
	case errors.Is(err, plans.ErrPlanNotFound):
		plan := plans.Plan{
			Name:          name,
			Price:         float64(p.UnitAmount) / 100.0,
			Currency:      strings.ToLower(p.Currency),
			Interval:      p.Interval,
			StripePriceID: &priceID,
		}
		if err := tx.Create(&plan).Error; err != nil {
			return false, fmt.Errorf("create plan %q: %w", name, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("load plan %q: %w", name, err)
	}

	existing.Name = name
	existing.Price = float64(p.UnitAmount) / 100.0
	existing.Currency = strings.ToLower(p.Currency)
	existing.Interval = p.Interval
	existing.StripePriceID = &priceID
	if err := tx.Save(&existing).Error; err != nil {
		return false, fmt.Errorf("update plan %q: %w", name, err)
	}
	return false, nil
}

func (h *Handler) ListPlans(c *gin.Context) {
	var plansList []plans.Plan
	if err := h.DB.Order("price ASC").Order("id ASC").Find(&plansList).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}
	c.JSON(http.StatusOK, plansList)
}
