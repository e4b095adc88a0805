// Package dedupe consolidates duplicate company and facility records: group
// by normalized identity, pick or synthesize one canonical record, repoint
// every discovered foreign key, archive the losers. Companies merge first,
// facilities second, one transaction per group.
package dedupe

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// GroupState tracks a merge group through review. A group only ever moves
// forward: Discovered -> Reviewed -> Confirmed -> Committed, or stops at
// Reviewed (dry run), Rejected (operator declined) or Failed (transaction
// rolled back).
type GroupState int

const (
	StateDiscovered GroupState = iota
	StateReviewed
	StateConfirmed
	StateCommitted
	StateRejected
	StateFailed
)

func (s GroupState) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateReviewed:
		return "reviewed"
	case StateConfirmed:
		return "confirmed"
	case StateCommitted:
		return "committed"
	case StateRejected:
		return "rejected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Decider answers the per-group "merge this?" question. Swapping the
// implementation turns the interactive loop into a batch policy or a test
// fixture.
type Decider interface {
	Confirm(prompt string) bool
}

// InteractiveDecider asks the operator on the terminal.
type InteractiveDecider struct {
	In  io.Reader
	Out io.Writer
}

// Confirm loops until it reads y/yes or n/no.
func (d *InteractiveDecider) Confirm(prompt string) bool {
	reader := bufio.NewReader(d.In)
	for {
		fmt.Fprint(d.Out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		fmt.Fprintln(d.Out, "Please enter y/n.")
	}
}

// AutoDecider answers every prompt the same way. Used for --yes runs and
// tests.
type AutoDecider struct {
	Answer bool
}

func (d *AutoDecider) Confirm(string) bool {
	return d.Answer
}

// Summary counts group outcomes for one phase.
type Summary struct {
	Groups    int
	Committed int
	Rejected  int
	Skipped   int // dry-run reviews and auto-skips
	Failed    int
}

// record tallies a finished group under its terminal state. A group that
// never got past review (dry run) counts as skipped.
func (s *Summary) record(state GroupState) {
	switch state {
	case StateCommitted:
		s.Committed++
	case StateRejected:
		s.Rejected++
	case StateFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}

// Print writes the phase report.
func (s Summary) Print(w io.Writer, phase string) {
	fmt.Fprintf(w, "\n%s: %d groups (committed %d, rejected %d, skipped %d, failed %d)\n",
		phase, s.Groups, s.Committed, s.Rejected, s.Skipped, s.Failed)
}
