package resolver

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/aginfo-gis/facility-tools/internal/audit"
	"github.com/aginfo-gis/facility-tools/internal/geocode"
)

// Outcome is the terminal status of one processed row. Every row gets
// exactly one.
type Outcome string

const (
	OutcomeUpdated   Outcome = "UPDATED"
	OutcomeDryRun    Outcome = "DRY_RUN"
	OutcomeNoQuery   Outcome = "NO_QUERY"
	OutcomeNoResult  Outcome = "NO_RESULT"
	OutcomeUnchanged Outcome = "UNCHANGED"
	OutcomeError     Outcome = "ERROR"
	OutcomeDBError   Outcome = "DB_ERROR"
)

// Coordinates closer than this on both axes are the same point as far as
// write-back is concerned.
const coordEpsilon = 1e-6

// Options configures a resolver run.
type Options struct {
	Limit  int
	DryRun bool
	Sleep  time.Duration
	Filter Filter
}

// Resolver walks qualifying facility rows, geocodes each one and
// conditionally writes back coordinates. Strictly sequential: the sleep
// between geocoder calls is the provider rate limit.
type Resolver struct {
	db       *sql.DB
	geocoder geocode.Geocoder
	log      *audit.CSVLog
	opts     Options

	// sleep is swappable so tests do not wait out the throttle.
	sleep func(time.Duration)
}

// New creates a resolver.
func New(conn *sql.DB, geocoder geocode.Geocoder, log *audit.CSVLog, opts Options) *Resolver {
	if opts.Limit <= 0 {
		opts.Limit = 500
	}
	return &Resolver{
		db:       conn,
		geocoder: geocoder,
		log:      log,
		opts:     opts,
		sleep:    time.Sleep,
	}
}

// Summary counts rows per terminal outcome.
type Summary struct {
	Processed int
	Outcomes  map[Outcome]int
}

func (s Summary) add(o Outcome) {
	s.Outcomes[o]++
}

// Print writes the end-of-run report.
func (s Summary) Print() {
	fmt.Printf("\nDone. Processed %d facilities.\n", s.Processed)

	keys := make([]string, 0, len(s.Outcomes))
	for k := range s.Outcomes {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-10s %d\n", k, s.Outcomes[Outcome(k)])
	}
}

// Run executes the batch. Setup failures return an error before any row is
// processed; per-row failures are recorded as outcomes and never abort the
// run.
func (r *Resolver) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Outcomes: make(map[Outcome]int)}

	if err := r.opts.Filter.Validate(r.db); err != nil {
		return summary, err
	}

	facilities, err := r.fetchFacilities()
	if err != nil {
		return summary, err
	}
	if len(facilities) == 0 {
		fmt.Println("No facilities found matching the criteria.")
		return summary, nil
	}

	fmt.Printf("Processing %d facilities...\n", len(facilities))

	for _, f := range facilities {
		outcome := r.processRow(ctx, f)
		summary.Processed++
		summary.add(outcome)

		if summary.Processed%25 == 0 {
			fmt.Printf("Progress: %d/%d - updated: %d\n",
				summary.Processed, len(facilities), summary.Outcomes[OutcomeUpdated])
		}
	}

	return summary, nil
}

func (r *Resolver) fetchFacilities() ([]Facility, error) {
	where, args := r.opts.Filter.WhereSQL(0)
	args = append(args, r.opts.Limit)

	query := fmt.Sprintf(`
		SELECT
		    facility_id, name,
		    address_line1, address_line2, city, state, postal_code,
		    latitude, longitude,
		    geom_from_address
		FROM public.facility
		WHERE %s
		ORDER BY facility_id
		LIMIT $%d
	`, where, len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facilities: %w", err)
	}
	defer rows.Close()

	var facilities []Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// processRow geocodes one facility and writes back the result, producing
// exactly one terminal outcome and one audit line.
func (r *Resolver) processRow(ctx context.Context, f Facility) Outcome {
	entry := audit.ResolverEntry{
		FacilityID:  f.ID,
		Name:        f.Name,
		Backend:     r.geocoder.Name(),
		OldLat:      f.Lat,
		OldLon:      f.Lon,
		OldGeomFlag: f.GeomFromAddress,
		NewGeomFlag: f.GeomFromAddress,
	}

	queries := BuildQueries(f)
	if len(queries) == 0 {
		return r.finish(entry, OutcomeNoQuery, "")
	}

	var result *geocode.Result
	var lastErr error
	for _, q := range queries {
		res, err := r.geocoder.Geocode(ctx, q.Text)
		r.sleep(r.opts.Sleep)
		if err != nil {
			lastErr = err
			continue
		}
		if res != nil {
			result = res
			entry.Query = q.Text
			entry.Mode = q.Mode
			break
		}
	}

	if result == nil {
		if lastErr != nil {
			return r.finish(entry, OutcomeError, lastErr.Error())
		}
		return r.finish(entry, OutcomeNoResult, "")
	}

	entry.NewLat = &result.Lat
	entry.NewLon = &result.Lon
	entry.DisplayName = result.DisplayName

	// A street-level result matching already-valid coordinates is a no-op.
	// City-centroid results always rewrite: the old value may be a stale
	// manual fix the operator asked to replace.
	if !r.opts.Filter.Overwrite && ValidCoords(f.Lat, f.Lon) && entry.Mode != ModeCityState &&
		abs(*f.Lat-result.Lat) < coordEpsilon && abs(*f.Lon-result.Lon) < coordEpsilon {
		return r.finish(entry, OutcomeUnchanged, "")
	}

	if r.opts.DryRun {
		return r.finish(entry, OutcomeDryRun, "")
	}

	if err := r.updateFacility(f.ID, result.Lat, result.Lon); err != nil {
		return r.finish(entry, OutcomeDBError, err.Error())
	}

	entry.NewGeomFlag = true
	return r.finish(entry, OutcomeUpdated, "")
}

// updateFacility writes the new coordinates in a single-statement
// transaction. The database trigger rebuilds geom from lat/lon.
func (r *Resolver) updateFacility(id int64, lat, lon float64) error {
	_, err := r.db.Exec(`
		UPDATE public.facility
		SET latitude = $1,
		    longitude = $2,
		    geom_from_address = TRUE
		WHERE facility_id = $3
	`, lat, lon, id)
	if err != nil {
		return fmt.Errorf("failed to update facility %d to (%f, %f): %w", id, lat, lon, err)
	}
	return nil
}

func (r *Resolver) finish(entry audit.ResolverEntry, outcome Outcome, detail string) Outcome {
	entry.Status = string(outcome)
	if detail != "" {
		entry.Status = fmt.Sprintf("%s: %s", outcome, detail)
	}
	if err := r.log.Write(entry); err != nil {
		fmt.Printf("Warning: failed to write audit entry for facility %d: %v\n", entry.FacilityID, err)
	}
	return outcome
}
