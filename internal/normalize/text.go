package normalize

import (
	"fmt"
	"strings"
)

// CombineText merges two free-text fields without losing either. Identical
// or contained text is deduplicated; otherwise the two chunks are joined
// with a visible separator.
func CombineText(a, b string) string {
	a = Whitespace(a)
	b = Whitespace(b)

	switch {
	case a == "" && b == "":
		return ""
	case b == "":
		return a
	case a == "":
		return b
	case a == b:
		return a
	}

	aLower := strings.ToLower(a)
	bLower := strings.ToLower(b)
	if strings.Contains(bLower, aLower) {
		return b
	}
	if strings.Contains(aLower, bLower) {
		return a
	}
	return fmt.Sprintf("%s\n\n---\n\n%s", a, b)
}

// FacilityKey builds the duplicate-grouping key for a facility: owning
// company plus the case/punctuation-normalized address. Facilities under
// different companies are never grouped together.
func FacilityKey(companyID int64, addressLine1, city, state, postalCode string) string {
	street := strings.ToLower(CleanStreet(addressLine1))
	return fmt.Sprintf("%d|%s|%s|%s|%s",
		companyID,
		street,
		strings.ToLower(Whitespace(city)),
		strings.ToUpper(Whitespace(state)),
		Whitespace(postalCode),
	)
}

// FacilityKeyHasAddress reports whether a facility key carries any address
// content beyond the company id. Keyless facilities are skipped by the
// grouper.
func FacilityKeyHasAddress(key string) bool {
	i := strings.Index(key, "|")
	if i < 0 {
		return false
	}
	rest := strings.ReplaceAll(key[i+1:], "|", "")
	return strings.TrimSpace(rest) != ""
}
