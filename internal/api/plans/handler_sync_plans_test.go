package plans

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"legalforge-api/internal/domain/plans"
	"legalforge-api/internal/infra/payments"
	"legalforge-api/internal/testutil"

	"github.com/gin-gonic/gin"
)

func TestSyncPlansFromStripe(t *testing.T) {
	db := testutil.NewDB(t)
	gw := &testutil.FakeGateway{Prices: []payments.Price{
		{ID: "price_pro_m", ProductID: "prod_lf", ProductName: "Pro", Currency: "EUR", Interval: "month", UnitAmount: 1299},
		{ID: "price_team", ProductID: "prod_lf", ProductName: "Team", Currency: "eur", Interval: "month", UnitAmount: 4900},
		{ID: "price_hidden", ProductID: "prod_lf", ProductName: "Legacy", Currency: "eur", Interval: "month", UnitAmount: 100, Metadata: map[string]string{"visible": "false"}},
		{ID: "price_other", ProductID: "prod_other", ProductName: "Other", Currency: "eur", Interval: "year", UnitAmount: 100},
	}}
	h := NewHandler(db, gw, "prod_lf")

	r := gin.New()
	r.POST("/admin/sync-plans", h.SyncPlansFromStripe)
	r.GET("/plans", h.ListPlans)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/sync-plans", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var counts map[string]int
	json.Unmarshal(w.Body.Bytes(), &counts)
	if counts["created"] != 1 || counts["updated"] != 1 || counts["skipped"] != 2 {
		t.Fatalf("counts = %v", counts)
	}

	pro := testutil.Plan(t, db, plans.NamePro)
	if pro.StripePriceID == nil || *pro.StripePriceID != "price_pro_m" || pro.Price != 12.99 || pro.Currency != "eur" {
		t.Fatalf("seeded Pro not attached: %+v", pro)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))
	var list []plans.Plan
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 3 || list[0].Name != plans.NameFree || list[2].Name != "Team" {
		t.Fatalf("plans = %+v", list)
	}
}

func TestSyncPlansWithoutStripe(t *testing.T) {
	db := testutil.NewDB(t)
	h := NewHandler(db, &testutil.FakeGateway{PricesErr: payments.ErrNotConfigured}, "")

	r := gin.New()
	r.POST("/admin/sync-plans", h.SyncPlansFromStripe)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/sync-plans", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestSyncPlansWithSeveralPricesPerPlan(t *testing.T) {
	db := testutil.NewDB(t)
	gw := &testutil.FakeGateway{Prices: []payments.Price{
		{ID: "price_pro_y", ProductID: "prod_lf", ProductName: "Pro", Currency: "eur", Interval: "year", UnitAmount: 12900},
		{ID: "price_pro_m", ProductID: "prod_lf", ProductName: "Pro", Currency: "eur", Interval: "month", UnitAmount: 1299},
	}}
	h := NewHandler(db, gw, "")
	r := gin.New()
	r.POST("/admin/sync-plans", h.SyncPlansFromStripe)

	sync := func() map[string]int {
		t.Helper()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/sync-plans", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var counts map[string]int
		json.Unmarshal(w.Body.Bytes(), &counts)
		return counts
	}

	if counts := sync(); counts["updated"] != 1 || counts["created"] != 0 || counts["skipped"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	pro := testutil.Plan(t, db, plans.NamePro)
	if pro.StripePriceID == nil || *pro.StripePriceID != "price_pro_m" || pro.Interval != "month" {
		t.Fatalf("monthly price should win: %+v", pro)
	}

	// A replacement price tagged primary takes over the existing plan.
	gw.Prices = []payments.Price{
		{ID: "price_pro_m", ProductID: "prod_lf", ProductName: "Pro", Currency: "eur", Interval: "month", UnitAmount: 1299},
		{ID: "price_pro_m2", ProductID: "prod_lf", ProductName: "Pro", Currency: "eur", Interval: "month", UnitAmount: 1499, Metadata: map[string]string{"primary": "true"}},
	}
	sync()
	var count int64
	db.Model(&plans.Plan{}).Where("LOWER(name) = ?", "pro").Count(&count)
	pro = testutil.Plan(t, db, plans.NamePro)
	if count != 1 || *pro.StripePriceID != "price_pro_m2" || pro.Price != 14.99 {
		t.Fatalf("count = %d, pro = %+v", count, pro)
	}
}
