package siteapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"legalforge-api/internal/app/http/middleware"
	"legalforge-api/internal/domain/documents"
	"legalforge-api/internal/domain/site"
	"legalforge-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newRouter(db *gorm.DB) *gin.Engine {
	h := NewHandler(db)
	r := gin.New()
	g := r.Group("/sites", middleware.AuthMiddleware(testutil.JWTSecret))
	g.GET("", h.ListSites)
	g.POST("", middleware.RequireSiteQuota(db), h.CreateSite)
	g.GET("/:id", h.GetSite)
	g.PUT("/:id", h.UpdateSite)
	g.DELETE("/:id", h.DeleteSite)
	return r
}

func call(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSiteNormalizesInput(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "owner@example.com", "Password1")
	r := newRouter(db)

	w := call(r, http.MethodPost, "/sites", testutil.Token(t, u),
		`{"name":" Shop ","domain":"https://WWW.Shop.com/about","legislation":"GDPR"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var s site.Site
	json.Unmarshal(w.Body.Bytes(), &s)
	if s.Name != "Shop" || s.Domain != "www.shop.com" || s.Legislation != "gdpr" || s.Language != "en" || s.OwnerID != u.ID {
		t.Fatalf("site = %+v", s)
	}

	w = call(r, http.MethodPost, "/sites", testutil.Token(t, u), `{"name":"Two","domain":"two.com","legislation":"gdpr"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("second site on free plan: status = %d, want 403", w.Code)
	}
}

func TestCreateSiteValidation(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "owner@example.com", "Password1")
	r := newRouter(db)

	for name, body := range map[string]string{
		"no name":         `{"domain":"a.com","legislation":"gdpr"}`,
		"bad domain":      `{"name":"A","domain":"not a domain","legislation":"gdpr"}`,
		"bad legislation": `{"name":"A","domain":"a.com","legislation":"hipaa"}`,
		"bad language":    `{"name":"A","domain":"a.com","legislation":"gdpr","language":"fr"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if w := call(r, http.MethodPost, "/sites", testutil.Token(t, u), body); w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestSitesAreOwnerScoped(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "Password1")
	other := testutil.CreateUser(t, db, "other@example.com", "Password1")
	s := site.Site{OwnerID: owner.ID, Name: "Mine", Domain: "mine.com", Legislation: "gdpr", Language: "en"}
	db.Create(&s)
	r := newRouter(db)
	path := "/sites/" + jsonID(s.ID)

	if w := call(r, http.MethodGet, path, testutil.Token(t, other), ""); w.Code != http.StatusNotFound {
		t.Fatalf("foreign get: status = %d", w.Code)
	}
	if w := call(r, http.MethodDelete, path, testutil.Token(t, other), ""); w.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: status = %d", w.Code)
	}

	w := call(r, http.MethodGet, "/sites", testutil.Token(t, other), "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("other user's list = %s", w.Body.String())
	}

	w = call(r, http.MethodPut, path, testutil.Token(t, owner), `{"language":"pt","observations":"Loja"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d", w.Code)
	}
	var updated site.Site
	db.First(&updated, s.ID)
	if updated.Language != "pt" || updated.Observations != "Loja" || updated.Name != "Mine" {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestDeleteSiteRemovesDocuments(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", "Password1")
	s := site.Site{OwnerID: owner.ID, Name: "Mine", Domain: "mine.com", Legislation: "gdpr", Language: "en"}
	db.Create(&s)
	db.Create(&documents.Document{SiteID: s.ID, Title: "Privacy", Type: documents.TypePrivacyPolicy})

	if w := call(newRouter(db), http.MethodDelete, "/sites/"+jsonID(s.ID), testutil.Token(t, owner), ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var n int64
	db.Model(&documents.Document{}).Count(&n)
	if n != 0 {
		t.Fatalf("documents left = %d", n)
	}
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
