package site

import "testing"

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"example.com":                    "example.com",
		"https://www.Example.com/about":  "www.example.com",
		"http://shop.example.co.uk:8080": "shop.example.co.uk",
		"  example.org.  ":               "example.org",
	}
	for in, want := range cases {
		got, err := NormalizeDomain(in)
		if err != nil || got != want {
			t.Fatalf("NormalizeDomain(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}

	for _, bad := range []string{"", "localhost", "not a domain", "-bad-.com"} {
		if _, err := NormalizeDomain(bad); err == nil {
			t.Fatalf("NormalizeDomain(%q) should fail", bad)
		}
	}
}

func TestNormalizeLegislationAndLanguage(t *testing.T) {
	if got, ok := NormalizeLegislation(" GDPR "); !ok || got != LegislationGDPR {
		t.Fatalf("NormalizeLegislation = (%q, %v)", got, ok)
	}
	if _, ok := NormalizeLegislation("hipaa"); ok {
		t.Fatal("hipaa should be rejected")
	}
	if got, ok := NormalizeLanguage(""); !ok || got != "en" {
		t.Fatalf("NormalizeLanguage(\"\") = (%q, %v)", got, ok)
	}
	if _, ok := NormalizeLanguage("xx"); ok {
		t.Fatal("xx should be rejected")
	}
}
