package dedupe

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/aginfo-gis/facility-tools/internal/db"
)

// Options configures a dedupe run.
type Options struct {
	Apply           bool    // default is dry run
	MaxMeters       float64 // spatial split threshold for address groups
	LimitCompanies  int     // 0 = no limit
	LimitFacilities int     // 0 = no limit
}

// DefaultMaxMeters is the distance beyond which two facilities sharing an
// address string are treated as distinct sites.
const DefaultMaxMeters = 250

// Deduper runs the two merge phases. Companies merge first so facility
// grouping sees the final company ids.
type Deduper struct {
	db      *sql.DB
	archive db.ArchiveTables
	decider Decider
	opts    Options
	out     io.Writer
}

// New creates a deduper. The archive tables are resolved by the caller once
// at startup so the run's archival behavior is fixed before any group is
// touched.
func New(conn *sql.DB, archive db.ArchiveTables, decider Decider, opts Options) *Deduper {
	if opts.MaxMeters <= 0 {
		opts.MaxMeters = DefaultMaxMeters
	}
	return &Deduper{
		db:      conn,
		archive: archive,
		decider: decider,
		opts:    opts,
		out:     os.Stdout,
	}
}

// SetOutput redirects progress and review output, for tests.
func (d *Deduper) SetOutput(w io.Writer) {
	d.out = w
}

// Run executes Phase A (companies) then Phase B (facilities). Phase B only
// starts after every Phase A group has committed or been skipped, so
// facility grouping never sees a half-merged company.
func (d *Deduper) Run(ctx context.Context) (Summary, Summary, error) {
	companies, err := d.RunCompanies(ctx)
	if err != nil {
		return companies, Summary{}, err
	}

	facilities, err := d.RunFacilities(ctx)
	if err != nil {
		return companies, facilities, err
	}

	companies.Print(d.out, "Companies")
	facilities.Print(d.out, "Facilities")
	return companies, facilities, nil
}
