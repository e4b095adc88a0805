package normalize

import (
	"regexp"
	"strings"
)

// Legal suffixes dropped when grouping company names.
var companySuffixes = map[string]bool{
	"inc":          true,
	"inc.":         true,
	"incorporated": true,
	"corp":         true,
	"corp.":        true,
	"corporation":  true,
	"llc":          true,
	"l.l.c":        true,
	"l.l.c.":       true,
	"ltd":          true,
	"ltd.":         true,
	"co":           true,
	"co.":          true,
	"company":      true,
}

// Keep word characters, spaces, ampersands and hyphens; everything else is
// punctuation as far as company identity is concerned.
var reCompanyPunct = regexp.MustCompile(`[^\w\s&-]`)

// CompanyKey reduces a company name to its grouping key: lower case, no
// punctuation, no legal suffixes. Two companies with the same non-empty key
// are duplicate candidates.
func CompanyKey(name string) string {
	n := strings.ToLower(Whitespace(name))
	n = reCompanyPunct.ReplaceAllString(n, "")

	var parts []string
	for _, p := range strings.Fields(n) {
		if companySuffixes[p] {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// NamesDifferOnlyTrivially reports whether two names differ only by
// punctuation, case or legal suffixes. Such groups are safe to auto-accept.
func NamesDifferOnlyTrivially(name1, name2 string) bool {
	if name1 == "" || name2 == "" {
		return false
	}
	k1 := CompanyKey(name1)
	k2 := CompanyKey(name2)
	return k1 != "" && k1 == k2
}
