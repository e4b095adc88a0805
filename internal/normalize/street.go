package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// abbrevRule expands one rural-US address abbreviation.
type abbrevRule struct {
	pattern *regexp.Regexp
	repl    string
}

// Rural route abbreviations as they show up in imported facility data.
// "CR 5" style county roads are the most common failure mode for geocoders.
var abbrevRules = []abbrevRule{
	{regexp.MustCompile(`(?i)\bC\.?\s*R\.?\b`), "County Road"},
	{regexp.MustCompile(`(?i)\bCo\.?\s*Rd\.?\b`), "County Road"},
	{regexp.MustCompile(`(?i)\bCty\.?\s*Rd\.?\b`), "County Road"},
	{regexp.MustCompile(`(?i)\bCounty\s+Rd\b`), "County Road"},
	{regexp.MustCompile(`(?i)\bSt\.?\s*Hwy\.?\b`), "State Highway"},
	{regexp.MustCompile(`(?i)\bHwy\.?\b`), "Highway"},
	{regexp.MustCompile(`(?i)\bU\.?\s*S\.?\s+(\d)`), "US Highway $1"},
	{regexp.MustCompile(`(?i)\bR\.?\s*R\.?\s+(\d)`), "Rural Route $1"},
	{regexp.MustCompile(`(?i)\bRte\.?\b`), "Route"},
}

// Street values that really mean "no street address".
var badStreetMarkers = map[string]bool{
	"":        true,
	"n/a":     true,
	"na":      true,
	"none":    true,
	"unknown": true,
	"null":    true,
	"-":       true,
	"--":      true,
}

var reWhitespace = regexp.MustCompile(`\s+`)

// Whitespace collapses runs of whitespace into single spaces and trims.
func Whitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// CleanStreet normalizes a street line for geocoding: collapse whitespace,
// drop placeholder markers, and expand rural abbreviations. Returns "" when
// the input carries no usable street.
func CleanStreet(street string) string {
	s := Whitespace(street)
	if badStreetMarkers[strings.ToLower(s)] {
		return ""
	}
	for _, rule := range abbrevRules {
		s = rule.pattern.ReplaceAllString(s, rule.repl)
	}
	return Whitespace(s)
}

// LooksLikeNoStreet reports whether a street value is unlikely to be a
// deliverable street address: a bad marker, or very short with no digits.
func LooksLikeNoStreet(street string) bool {
	s := strings.ToLower(strings.TrimSpace(street))
	if badStreetMarkers[s] {
		return true
	}

	hasDigit := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	return !hasDigit && len(s) < 6
}

// TitleStreet re-cases a cleaned street line for display and storage,
// keeping two-letter state codes upper case.
func TitleStreet(street, state string) string {
	words := strings.Fields(street)
	for i, w := range words {
		lower := strings.ToLower(w)
		if state != "" && lower == strings.ToLower(state) {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
