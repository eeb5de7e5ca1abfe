package stripewebhooks

import (
	"context"
	"io"
	"net/http"

	"legalforge-api/internal/infra/logger"
	"legalforge-api/internal/infra/metrics"
	"legalforge-api/internal/infra/payments"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxBodyBytes = 65536

type Handler struct {
	DB      *gorm.DB
	Gateway payments.Gateway
	Secret  string
	Metrics *metrics.Metrics
}

func NewHandler(db *gorm.DB, gateway payments.Gateway, secret string, m *metrics.Metrics) *Handler {
	return &Handler{DB: db, Gateway: gateway, Secret: secret, Metrics: m}
}

type eventFunc func(ctx context.Context, log *zap.Logger, event stripe.Event) result

func (h *Handler) handlers() map[string]eventFunc {
	return map[string]eventFunc{
		"checkout.session.completed":    h.checkoutCompleted,
		"customer.subscription.deleted": h.subscriptionDeleted,
		"customer.subscription.updated": h.subscriptionUpdated,
	}
}

// StripeWebhook verifies and applies one Stripe delivery. Every branch
// answers explicitly: 400 for unverifiable requests, 500 when the database
// failed and a retry can succeed, 200 for everything else.
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		log.Warn("stripe signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	eventType := string(event.Type)
	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", eventType))

	handle, ok := h.handlers()[eventType]
	if !ok {
		log.Info("ignoring unhandled stripe event")
		h.observe(eventType, "ignored")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	seen, err := alreadyHandled(h.DB, event.ID)
	if err != nil {
		log.Error("check stripe event", zap.Error(err))
		h.observe(eventType, string(OutcomeStoreError))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}
	if seen {
		log.Info("stripe event already handled")
		h.observe(eventType, string(OutcomeDuplicate))
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	res := handle(c.Request.Context(), log, event)
	if res.Outcome == OutcomeDuplicate {
		log.Info("stripe event applied by a concurrent delivery")
		h.observe(eventType, string(OutcomeDuplicate))
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}
	if !res.Outcome.Retryable() {
		if err := record(h.DB, event, res); err != nil {
			log.Error("record stripe event", zap.Error(err))
			res = failed(OutcomeStoreError, "%v", err)
		}
	}
	h.observe(eventType, string(res.Outcome))

	switch {
	case res.Outcome.Retryable():
		log.Error("stripe event not applied, asking for redelivery", zap.String("detail", res.Detail))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
	case res.Outcome.DeadLettered():
		log.Warn("stripe event dead-lettered",
			zap.String("outcome", string(res.Outcome)),
			zap.String("detail", res.Detail),
		)
		c.JSON(http.StatusOK, gin.H{"status": "received", "outcome": res.Outcome})
	default:
		log.Info("stripe event applied")
		c.JSON(http.StatusOK, gin.H{"status": "received", "outcome": res.Outcome})
	}
}

func (h *Handler) observe(eventType, outcome string) {
	if h.Metrics != nil {
		h.Metrics.ObserveWebhook(eventType, outcome)
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
