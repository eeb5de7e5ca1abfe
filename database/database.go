package database

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/documents"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/domain/site"
	"legalforge-api/internal/domain/users"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger reports slow queries and real errors. Lookup misses are
// expected on most request paths and are not logged.
func gormLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Open connects with the configured driver: postgres in deployments, sqlite
// for local runs and tests.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger(os.Stdout),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if driver == "sqlite" {
		// One connection keeps ":memory:" databases shared and serializes writers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// core
		&users.User{},
		&users.PasswordReset{},
		&plans.Plan{},
		&plans.UserPlan{},
		&plans.PlanChange{},

		// billing
		&billing.Subscription{},
		&billing.Payment{},
		&billing.StripeEvent{},
		&billing.WebhookFailure{},

		// content
		&site.Site{},
		&documents.Document{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// SeedPlans inserts the free and Pro plans when they are missing. Prices and
// Stripe price ids are refreshed later by /admin/sync-plans.
func SeedPlans(db *gorm.DB) error {
	defaults := []plans.Plan{
		{Name: plans.NameFree, Price: 0, Currency: "eur", Interval: "month"},
		{Name: plans.NamePro, Price: 9.99, Currency: "eur", Interval: "month"},
	}
	for _, p := range defaults {
		_, err := plans.FindByName(db, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, plans.ErrPlanNotFound) {
			return err
		}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("seed plan %s: %w", p.Name, err)
		}
	}
	return nil
}
