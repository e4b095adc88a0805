package resolver

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aginfo-gis/facility-tools/internal/db"
)

// Filter selects which facility rows a run processes. Flags combine with
// AND; with no flags set the default is "missing or obviously bad
// coordinates".
type Filter struct {
	Where               string // raw predicate escape hatch, without "WHERE"
	Overwrite           bool   // process all rows
	GeomFromAddressOnly bool   // geom_from_address = FALSE rows only
	MarkedOnly          bool   // marked = TRUE rows only
	NotUpdatedAfter     string // YYYY-MM-DD cutoff on updated_at
}

// The placeholder clause shares its constants with ClassifyCoords so the
// SQL filter and the in-memory classification never disagree.
var badCoordsPredicate = fmt.Sprintf(`(
	  latitude IS NULL OR longitude IS NULL
	  OR latitude = 0 OR longitude = 0
	  OR latitude NOT BETWEEN -90 AND 90
	  OR longitude NOT BETWEEN -180 AND 180
	  OR (latitude = %g AND longitude = %g)
	)`, placeholderLat, placeholderLon)

// Validate checks filter preconditions against the live schema. The
// updated_at cutoff needs the column to exist and a parseable date.
func (f Filter) Validate(conn *sql.DB) error {
	if f.NotUpdatedAfter == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", f.NotUpdatedAfter); err != nil {
		return fmt.Errorf("--not-updated-after wants YYYY-MM-DD, got %q", f.NotUpdatedAfter)
	}
	cols, err := db.TableColumns(conn, "public", "facility")
	if err != nil {
		return err
	}
	if !cols["updated_at"] {
		return fmt.Errorf("--not-updated-after requires an updated_at column in the facility table")
	}
	return nil
}

// WhereSQL builds the WHERE predicate for the run. The cutoff date is bound
// as a parameter; the returned args line up with $1.. placeholders starting
// at argOffset+1.
func (f Filter) WhereSQL(argOffset int) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if f.Where != "" {
		conditions = append(conditions, "("+f.Where+")")
	}
	if f.GeomFromAddressOnly {
		conditions = append(conditions, "geom_from_address = FALSE")
	}
	if f.MarkedOnly {
		conditions = append(conditions, "marked = TRUE")
	}
	if f.NotUpdatedAfter != "" {
		args = append(args, f.NotUpdatedAfter)
		conditions = append(conditions, fmt.Sprintf("updated_at < $%d", argOffset+len(args)))
	}

	switch {
	case f.Overwrite && len(conditions) == 0:
		return "1=1", nil
	case len(conditions) > 0:
		return strings.Join(conditions, " AND "), args
	default:
		return badCoordsPredicate, nil
	}
}
