package main

import (
	"log"
	"time"

	"legalforge-api/config"
	"legalforge-api/database"
	authapi "legalforge-api/internal/api/auth"
	routes "legalforge-api/internal/app/http"
	"legalforge-api/internal/infra/logger"
	"legalforge-api/internal/infra/mail"
	"legalforge-api/internal/infra/metrics"
	"legalforge-api/internal/infra/payments"
	"legalforge-api/internal/infra/recaptcha"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "legalforge-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.AppEnv, serviceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.Open(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("failed to migrate database", zap.Error(err))
	}
	if err := database.SeedPlans(db); err != nil {
		zl.Fatal("failed to seed plans", zap.Error(err))
	}

	if cfg.StripeSecretKey == "" {
		zl.Warn("STRIPE_SECRET_KEY not set, billing endpoints will return 503")
	}
	if cfg.StripeWebhookSecret == "" {
		zl.Warn("STRIPE_WEBHOOK_SECRET not set, webhook deliveries will be rejected")
	}

	m := metrics.New(serviceName)

	authOpts := authapi.Options{
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		AppURL:    cfg.AppURL,
	}
	if cfg.GoogleEnabled() {
		authOpts.Google = &authapi.GoogleConfig{
			ClientID:         cfg.GoogleClientID,
			ClientSecret:     cfg.GoogleClientSecret,
			RedirectURL:      cfg.GoogleRedirectURL,
			FrontendRedirect: cfg.GoogleFrontendRedirect,
		}
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID(zl))
	r.Use(logger.RequestLogger())
	r.Use(m.Middleware())

	// CORS must run before routes are registered.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		DB:      db,
		Gateway: payments.NewClient(cfg.StripeSecretKey),
		Mailer: mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, zl),
		Captcha:       recaptcha.NewClient(cfg.RecaptchaSecret),
		Metrics:       m,
		Auth:          authOpts,
		AppURL:        cfg.AppURL,
		ProductID:     cfg.StripeProductID,
		WebhookSecret: cfg.StripeWebhookSecret,
	})

	zl.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
