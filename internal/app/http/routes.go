package routes

import (
	"net/http"

	adminapi "legalforge-api/internal/api/admin"
	authapi "legalforge-api/internal/api/auth"
	"legalforge-api/internal/api/billing"
	documentsapi "legalforge-api/internal/api/documents"
	"legalforge-api/internal/api/plans"
	siteapi "legalforge-api/internal/api/site"
	stripewebhooks "legalforge-api/internal/api/stripewebhook"
	"legalforge-api/internal/api/users"
	"legalforge-api/internal/app/http/middleware"
	domainusers "legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/mail"
	"legalforge-api/internal/infra/metrics"
	"legalforge-api/internal/infra/payments"
	"legalforge-api/internal/infra/recaptcha"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps is everything the handlers need from the process.
type Deps struct {
	DB        *gorm.DB
	Gateway   payments.Gateway
	Mailer    mail.Mailer
	Captcha   recaptcha.Verifier
	Metrics   *metrics.Metrics
	Auth      authapi.Options
	AppURL    string
	ProductID string

	WebhookSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	authH := authapi.NewHandler(d.DB, d.Gateway, d.Mailer, d.Captcha, d.Auth)
	billingH := billing.NewHandler(d.DB, d.Gateway, d.AppURL)
	plansH := plans.NewHandler(d.DB, d.Gateway, d.ProductID)
	usersH := users.NewHandler(d.DB)
	sitesH := siteapi.NewHandler(d.DB)
	docsH := documentsapi.NewHandler(d.DB)
	adminH := adminapi.NewHandler(d.DB)
	webhookH := stripewebhooks.NewHandler(d.DB, d.Gateway, d.WebhookSecret, d.Metrics)

	// Raw body is needed for the signature check, so no sanitizer here.
	r.POST("/webhook", webhookH.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/auth/register", authH.Register)
	public.POST("/auth/login", authH.Login)
	public.POST("/auth/forgot-password", authH.ForgotPassword)
	public.POST("/auth/reset-password", authH.ResetPassword)
	public.GET("/auth/google", authH.GoogleStart)
	public.GET("/auth/google/callback", authH.GoogleCallback)
	public.GET("/plans", plansH.ListPlans)
	public.GET("/public/documents/:publicId", docsH.PublicDocument)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.Auth.JWTSecret))

	auth.GET("/auth/validate-token", authH.ValidateToken)
	auth.POST("/auth/change-password", authH.ChangePassword)

	auth.GET("/user/profile", usersH.GetProfile)
	auth.PUT("/user/profile", usersH.UpdateProfile)
	auth.GET("/user/subscription", usersH.GetSubscription)

	auth.POST("/plans/create-checkout-session", billingH.CreateCheckoutSession)
	auth.POST("/plans/create-portal-session", billingH.CreatePortalSession)
	auth.POST("/plans/cancel-subscription", billingH.CancelSubscription)
	auth.POST("/plans/reactivate-subscription", billingH.ReactivateSubscription)
	auth.GET("/payments", billingH.GetPaymentHistory)

	auth.GET("/sites", sitesH.ListSites)
	auth.POST("/sites", middleware.RequireSiteQuota(d.DB), sitesH.CreateSite)
	auth.GET("/sites/:id", sitesH.GetSite)
	auth.PUT("/sites/:id", sitesH.UpdateSite)
	auth.DELETE("/sites/:id", sitesH.DeleteSite)

	auth.GET("/sites/:id/documents", docsH.ListDocuments)
	auth.POST("/sites/:id/documents", docsH.CreateDocument)
	auth.GET("/documents/:id", docsH.GetDocument)
	auth.PUT("/documents/:id", docsH.UpdateDocument)
	auth.DELETE("/documents/:id", docsH.DeleteDocument)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.Auth.JWTSecret), middleware.RequireRole(domainusers.RoleAdmin))
	admin.GET("/users", adminH.ListUsers)
	admin.GET("/users/:id", adminH.GetUser)
	admin.PUT("/users/:id/plan", adminH.SetUserPlan)
	admin.GET("/stats", adminH.Stats)
	admin.GET("/webhook-failures", adminH.ListWebhookFailures)
	admin.POST("/sync-plans", plansH.SyncPlansFromStripe)
}
