package audit

import (
	"fmt"
	"io"
	"strings"
)

// FieldDiff is one field whose values differ across a merge group, together
// with the value the proposed canonical record would carry.
type FieldDiff struct {
	Field  string
	Values []MemberValue
	Merged string
}

// MemberValue is one group member's value for a field.
type MemberValue struct {
	ID    int64
	Value string
}

// GroupReport describes one duplicate group as shown to the operator.
type GroupReport struct {
	Kind      string // "company" or "facility"
	Index     int
	Total     int
	MemberIDs []int64
	Matches   []string
	Diffs     []FieldDiff
}

const reportRule = "======================================================================================"

// Print writes the group diff in the review-table layout.
func (r GroupReport) Print(w io.Writer) {
	fmt.Fprintf(w, "\n%s\n", reportRule)
	fmt.Fprintf(w, "%s group %d/%d: %v\n", capitalize(r.Kind), r.Index, r.Total, r.MemberIDs)
	fmt.Fprintln(w, strings.Repeat("-", len(reportRule)))

	if len(r.Matches) > 0 {
		fmt.Fprintf(w, "Matches: %s\n", strings.Join(r.Matches, ", "))
	} else {
		fmt.Fprintln(w, "Matches: (none)")
	}

	if len(r.Diffs) == 0 {
		fmt.Fprintln(w, "Changes: (none)")
		return
	}

	fmt.Fprintln(w, "\nFields to change / combine:")
	for _, d := range r.Diffs {
		fmt.Fprintf(w, "  - %s\n", d.Field)
		for _, mv := range d.Values {
			fmt.Fprintf(w, "      %d: %s\n", mv.ID, truncate(mv.Value))
		}
		fmt.Fprintf(w, "    merged: %s\n", truncate(d.Merged))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string) string {
	const maxLen = 160
	if s == "" {
		return "(empty)"
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
