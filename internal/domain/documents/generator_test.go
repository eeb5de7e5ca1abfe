package documents

import (
	"strings"
	"testing"
	"time"

	"legalforge-api/internal/domain/site"
)

func testSite() site.Site {
	return site.Site{
		Name:        "Acme Store",
		Domain:      "acme.example",
		Language:    "en",
		Legislation: site.LegislationGDPR,
	}
}

func TestGeneratePrivacyPolicy(t *testing.T) {
	owner := Owner{Name: "Acme Ltd", Identity: "B12345678", Email: "legal@acme.example"}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := Generate(TypePrivacyPolicy, testSite(), owner, now)
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	for _, want := range []string{"Acme Store", "acme.example", "B12345678", "2016/679", "legal@acme.example", "2026-03-01"} {
		if !strings.Contains(got, want) {
			t.Fatalf("privacy policy missing %q:\n%s", want, got)
		}
	}
}

func TestGenerateEscapesSiteFields(t *testing.T) {
	s := testSite()
	s.Name = `<script>alert(1)</script>`
	s.Observations = "<b>note</b>"

	got, err := Generate(TypeTermsOfUse, s, Owner{Name: "Acme"}, time.Now())
	if err != nil {
		t.Fatalf("Generate error = %v", err)
	}
	if strings.Contains(got, "<script>") || strings.Contains(got, "<b>note</b>") {
		t.Fatalf("generated document contains unescaped input:\n%s", got)
	}
}

func TestGenerateRejectsUnknownInput(t *testing.T) {
	if _, err := Generate("eula", testSite(), Owner{}, time.Now()); err == nil {
		t.Fatal("expected error for unknown document type")
	}
	s := testSite()
	s.Legislation = "pipeda"
	if _, err := Generate(TypeCookiePolicy, s, Owner{}, time.Now()); err == nil {
		t.Fatal("expected error for unsupported legislation")
	}
}

func TestTitleFallsBackToEnglish(t *testing.T) {
	if got := Title(TypeCookiePolicy, "es"); got != "Política de Cookies" {
		t.Fatalf("Title(es) = %q", got)
	}
	if got := Title(TypeTermsOfUse, "de"); got != "Terms of Use" {
		t.Fatalf("Title(de) = %q", got)
	}
}
