package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"legalforge-api/internal/app/http/middleware"
	"legalforge-api/internal/domain/billing"
	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/domain/users"
	"legalforge-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newRouter(db *gorm.DB) *gin.Engine {
	h := NewHandler(db)
	r := gin.New()
	g := r.Group("/admin", middleware.AuthMiddleware(testutil.JWTSecret), middleware.RequireRole(users.RoleAdmin))
	g.GET("/users", h.ListUsers)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/:id/plan", h.SetUserPlan)
	g.GET("/stats", h.Stats)
	g.GET("/webhook-failures", h.ListWebhookFailures)
	return r
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newAdmin(t *testing.T, db *gorm.DB) string {
	t.Helper()
	a := testutil.CreateUser(t, db, "admin@example.com", "Password1")
	db.Model(&a).Update("role", users.RoleAdmin)
	a.Role = users.RoleAdmin
	return testutil.Token(t, a)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db)
	u := testutil.CreateUser(t, db, "user@example.com", "Password1")

	if w := do(r, http.MethodGet, "/admin/users", testutil.Token(t, u), ""); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestListUsersIncludesPlanName(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db)
	token := newAdmin(t, db)
	testutil.CreateUser(t, db, "user@example.com", "Password1")

	w := do(r, http.MethodGet, "/admin/users", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got []AdminUser
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].Email != "user@example.com" || got[1].PlanName == nil || *got[1].PlanName != plans.NameFree {
		t.Fatalf("user row = %+v", got[1])
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatal("password hash leaked")
	}
}

func TestSetUserPlanWritesLedger(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db)
	token := newAdmin(t, db)
	u := testutil.CreateUser(t, db, "user@example.com", "Password1")
	pro := testutil.Plan(t, db, plans.NamePro)

	w := do(r, http.MethodPut, fmt.Sprintf("/admin/users/%d/plan", u.ID), token, fmt.Sprintf(`{"planId":%d}`, pro.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	current, _ := plans.CurrentPlan(db, u.ID)
	if current == nil || current.ID != pro.ID {
		t.Fatalf("current plan = %+v", current)
	}
	var last plans.PlanChange
	db.Where("user_id = ?", u.ID).Order("id DESC").First(&last)
	if last.Reason != plans.ReasonAdmin || last.ToPlanID != pro.ID || last.StripeEventID != nil {
		t.Fatalf("ledger row = %+v", last)
	}

	w = do(r, http.MethodGet, fmt.Sprintf("/admin/users/%d", u.ID), token, "")
	var detail struct {
		User struct {
			State string `json:"state"`
		} `json:"user"`
		PlanChanges []AdminPlanChange `json:"planChanges"`
	}
	json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.User.State != "pro" || len(detail.PlanChanges) != 2 {
		t.Fatalf("detail = %+v", detail)
	}
}

func TestSetUserPlanValidation(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db)
	token := newAdmin(t, db)
	u := testutil.CreateUser(t, db, "user@example.com", "Password1")

	cases := []struct {
		path, body string
		want       int
	}{
		{fmt.Sprintf("/admin/users/%d/plan", u.ID), `{}`, http.StatusBadRequest},
		{fmt.Sprintf("/admin/users/%d/plan", u.ID), `{"planId":999}`, http.StatusBadRequest},
		{"/admin/users/999/plan", `{"planId":1}`, http.StatusNotFound},
		{"/admin/users/abc/plan", `{"planId":1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if w := do(r, http.MethodPut, tc.path, token, tc.body); w.Code != tc.want {
			t.Fatalf("PUT %s %s: status = %d, want %d", tc.path, tc.body, w.Code, tc.want)
		}
	}
}

func TestStatsAndFailures(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db)
	token := newAdmin(t, db)
	u := testutil.CreateUser(t, db, "user@example.com", "Password1")

	db.Create(&billing.Payment{UserID: u.ID, StripeSessionID: "cs_1", Amount: 9.99, Currency: "eur", Status: "paid"})
	db.Create(&billing.Payment{UserID: u.ID, StripeSessionID: "cs_2", Amount: 5, Currency: "eur", Status: "failed"})
	db.Create(&billing.WebhookFailure{EventID: "evt_1", EventType: "checkout.session.completed", Outcome: "user_not_found"})
	db.Create(&billing.WebhookFailure{EventID: "evt_2", EventType: "customer.subscription.deleted", Outcome: "plan_not_found"})

	w := do(r, http.MethodGet, "/admin/stats", token, "")
	var stats AdminStats
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.TotalUsers != 2 || stats.TotalRevenue != 9.99 || stats.RecentRevenue != 9.99 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.UsersPerPlan[plans.NameFree] != 2 || stats.OpenFailures != 2 {
		t.Fatalf("stats = %+v", stats)
	}

	w = do(r, http.MethodGet, "/admin/webhook-failures?outcome=user_not_found", token, "")
	var failures []billing.WebhookFailure
	json.Unmarshal(w.Body.Bytes(), &failures)
	if len(failures) != 1 || failures[0].EventID != "evt_1" {
		t.Fatalf("failures = %+v", failures)
	}
}
