package site

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	schemePrefix = regexp.MustCompile(`^[a-z][a-z0-9+.\-]*://`)
	hostname     = regexp.MustCompile(`^([a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
)

// NormalizeDomain reduces user input such as "https://www.Example.com/about"
// to a bare lowercase host ("www.example.com").
func NormalizeDomain(raw string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = schemePrefix.ReplaceAllString(d, "")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")

	if !hostname.MatchString(d) {
		return "", fmt.Errorf("invalid domain %q", raw)
	}
	return d, nil
}
