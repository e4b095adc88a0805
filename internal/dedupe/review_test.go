package dedupe

import (
	"bytes"
	"strings"
	"testing"
)

func TestInteractiveDeciderConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"yes word", "yes\n", true},
		{"no", "n\n", false},
		{"no word", "NO\n", false},
		{"garbage then yes", "maybe\ny\n", true},
		{"eof is no", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			d := &InteractiveDecider{In: strings.NewReader(tt.input), Out: &out}
			got := d.Confirm("merge? ")
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "merge? ") {
				t.Errorf("prompt not written, got %q", out.String())
			}
		})
	}
}

func TestAutoDecider(t *testing.T) {
	if !(&AutoDecider{Answer: true}).Confirm("anything") {
		t.Error("AutoDecider{true}.Confirm() = false")
	}
	if (&AutoDecider{}).Confirm("anything") {
		t.Error("AutoDecider{false}.Confirm() = true")
	}
}

func TestGroupStateString(t *testing.T) {
	tests := []struct {
		state GroupState
		want  string
	}{
		{StateDiscovered, "discovered"},
		{StateReviewed, "reviewed"},
		{StateConfirmed, "confirmed"},
		{StateCommitted, "committed"},
		{StateRejected, "rejected"},
		{StateFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("GroupState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestSummaryRecord(t *testing.T) {
	var s Summary
	for _, st := range []GroupState{
		StateCommitted, StateCommitted, StateRejected, StateFailed, StateReviewed,
	} {
		s.record(st)
	}

	want := Summary{Committed: 2, Rejected: 1, Failed: 1, Skipped: 1}
	if s != want {
		t.Errorf("summary after record = %+v, want %+v", s, want)
	}
}

func TestSummaryPrint(t *testing.T) {
	var out bytes.Buffer
	Summary{Groups: 3, Committed: 1, Rejected: 1, Skipped: 1}.Print(&out, "Companies")
	got := out.String()
	if !strings.Contains(got, "Companies") || !strings.Contains(got, "3 groups") {
		t.Errorf("Print() = %q", got)
	}
}
