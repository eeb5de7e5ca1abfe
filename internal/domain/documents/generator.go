package documents

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"legalforge-api/internal/domain/site"
)

// Owner is the legal entity named in generated documents.
type Owner struct {
	Name     string
	Identity string
	Email    string
}

type templateData struct {
	SiteName     string
	Domain       string
	Language     string
	Law          string
	Owner        Owner
	Observations string
	Updated      string
}

var titles = map[string]map[string]string{
	TypePrivacyPolicy: {"en": "Privacy Policy", "es": "Política de Privacidad", "pt": "Política de Privacidade"},
	TypeTermsOfUse:    {"en": "Terms of Use", "es": "Términos de Uso", "pt": "Termos de Uso"},
	TypeCookiePolicy:  {"en": "Cookie Policy", "es": "Política de Cookies", "pt": "Política de Cookies"},
}

var laws = map[string]string{
	site.LegislationGDPR: "the General Data Protection Regulation (EU) 2016/679",
	site.LegislationLGPD: "the Lei Geral de Proteção de Dados (Lei nº 13.709/2018)",
	site.LegislationCCPA: "the California Consumer Privacy Act",
}

var bodies = template.Must(template.New("documents").Parse(`
{{define "privacy_policy"}}<h1>Privacy Policy</h1>
<p>This policy explains how {{.Owner.Name}}{{if .Owner.Identity}} ({{.Owner.Identity}}){{end}} collects and processes personal data of visitors of {{.SiteName}} (<a href="https://{{.Domain}}">{{.Domain}}</a>), in accordance with {{.Law}}.</p>
<h2>Data we collect</h2>
<p>We collect the data you provide through forms and the technical data your browser sends when you visit the site.</p>
<h2>Your rights</h2>
<p>You may request access, correction or deletion of your personal data by writing to {{.Owner.Email}}.</p>
{{if .Observations}}<h2>Additional information</h2>
<p>{{.Observations}}</p>
{{end}}<p>Last updated: {{.Updated}}</p>{{end}}
{{define "terms_of_use"}}<h1>Terms of Use</h1>
<p>By using {{.SiteName}} (<a href="https://{{.Domain}}">{{.Domain}}</a>) you agree to these terms, offered by {{.Owner.Name}}{{if .Owner.Identity}} ({{.Owner.Identity}}){{end}}.</p>
<h2>Use of the service</h2>
<p>You agree not to misuse the site or interfere with its normal operation.</p>
<h2>Governing law</h2>
<p>Personal data handled through the site is processed under {{.Law}}.</p>
{{if .Observations}}<h2>Additional information</h2>
<p>{{.Observations}}</p>
{{end}}<p>Last updated: {{.Updated}}</p>{{end}}
{{define "cookie_policy"}}<h1>Cookie Policy</h1>
<p>{{.SiteName}} (<a href="https://{{.Domain}}">{{.Domain}}</a>) uses cookies to operate and improve the site, as required by {{.Law}}.</p>
<h2>Managing cookies</h2>
<p>You can block or delete cookies in your browser settings. Questions can be sent to {{.Owner.Email}}.</p>
{{if .Observations}}<h2>Additional information</h2>
<p>{{.Observations}}</p>
{{end}}<p>Last updated: {{.Updated}}</p>{{end}}
`))

// Title returns the localized document title, falling back to English.
func Title(docType, lang string) string {
	t, ok := titles[docType]
	if !ok {
		return ""
	}
	if v, ok := t[lang]; ok {
		return v
	}
	return t["en"]
}

// Generate renders the built-in template for docType with the site's details.
func Generate(docType string, s site.Site, owner Owner, now time.Time) (string, error) {
	if !ValidType(docType) {
		return "", fmt.Errorf("unknown document type %q", docType)
	}
	law, ok := laws[s.Legislation]
	if !ok {
		return "", fmt.Errorf("unsupported legislation %q", s.Legislation)
	}

	var buf bytes.Buffer
	err := bodies.ExecuteTemplate(&buf, docType, templateData{
		SiteName:     s.Name,
		Domain:       s.Domain,
		Language:     s.Language,
		Law:          law,
		Owner:        owner,
		Observations: s.Observations,
		Updated:      now.Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", docType, err)
	}
	return buf.String(), nil
}
