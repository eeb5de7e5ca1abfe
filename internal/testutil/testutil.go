// Package testutil holds the fixtures shared by handler tests: an in-memory
// database with the real schema, a recording Stripe gateway and mailer, and
// token helpers.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"legalforge-api/database"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/infra/payments"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const JWTSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// NewDB returns a migrated, seeded in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedPlans(db); err != nil {
		t.Fatalf("seed plans: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Plan returns the seeded plan with that name.
func Plan(t *testing.T, db *gorm.DB, name string) plans.Plan {
	t.Helper()
	p, err := plans.FindByName(db, name)
	if err != nil {
		t.Fatalf("find plan %s: %v", name, err)
	}
	return p
}

// CreateUser inserts a local user with the given password and puts them on
// the free plan.
func CreateUser(t *testing.T, db *gorm.DB, email, password string) users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	h := string(hash)
	u := users.User{
		Email:        email,
		Password:     &h,
		Name:         "Test User",
		Role:         users.RoleUser,
		AuthProvider: users.ProviderLocal,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	free := Plan(t, db, plans.NameFree)
	if err := plans.Assign(db, u.ID, free.ID, plans.ReasonRegistration, ""); err != nil {
		t.Fatalf("assign free plan: %v", err)
	}
	return u
}

// Token signs a bearer token the auth middleware accepts.
func Token(t *testing.T, u users.User) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// FakeGateway records calls and answers with the configured values.
type FakeGateway struct {
	mu sync.Mutex

	CustomerID      string
	CustomerErr     error
	FoundCustomerID string
	FindErr         error
	Session         payments.CheckoutSession
	SessionErr      error
	PortalURL       string
	PortalErr       error
	Subscription    payments.SubscriptionState
	SubscriptionErr error
	Prices          []payments.Price
	PricesErr       error

	CreatedCustomers []string
	LookedUpEmails   []string
	Checkouts        []payments.CheckoutRequest
	PortalCustomers  []string
	CancelCalls      map[string]bool
}

var _ payments.Gateway = (*FakeGateway)(nil)

func (f *FakeGateway) CreateCustomer(_ context.Context, email, _ string, _ map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreatedCustomers = append(f.CreatedCustomers, email)
	return f.CustomerID, f.CustomerErr
}

func (f *FakeGateway) FindCustomerIDByEmail(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LookedUpEmails = append(f.LookedUpEmails, email)
	return f.FoundCustomerID, f.FindErr
}

func (f *FakeGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (payments.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Checkouts = append(f.Checkouts, req)
	return f.Session, f.SessionErr
}

func (f *FakeGateway) CreatePortalSession(_ context.Context, customerID, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PortalCustomers = append(f.PortalCustomers, customerID)
	return f.PortalURL, f.PortalErr
}

func (f *FakeGateway) SetCancelAtPeriodEnd(_ context.Context, subscriptionID string, cancel bool) (payments.SubscriptionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CancelCalls == nil {
		f.CancelCalls = map[string]bool{}
	}
	f.CancelCalls[subscriptionID] = cancel
	st := f.Subscription
	if st.ID == "" {
		st.ID = subscriptionID
	}
	st.CancelAtPeriodEnd = cancel
	return st, f.SubscriptionErr
}

func (f *FakeGateway) ListRecurringPrices(context.Context) ([]payments.Price, error) {
	return f.Prices, f.PricesErr
}

// Mail is one message captured by FakeMailer.
type Mail struct {
	To      string
	Subject string
	Body    string
}

type FakeMailer struct {
	mu   sync.Mutex
	Sent []Mail
	Err  error
}

func (m *FakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, Mail{To: to, Subject: subject, Body: body})
	return m.Err
}

func (m *FakeMailer) Messages() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.Sent...)
}
