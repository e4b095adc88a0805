package db

import (
	"database/sql"
	"fmt"
)

// ArchiveTables records which optional archive tables exist in the target
// schema. It is resolved once at startup so a run's behavior is fixed up
// front and test setups can construct it directly. An empty name means no
// archive table is available for that entity; in that case merged rows are
// left in place rather than deleted.
type ArchiveTables struct {
	Companies  string // "deactivated_company", "deactivated_companies" or ""
	Facilities string // "deactivated_facilities" or ""
}

// ResolveArchiveTables probes the schema for the optional archive tables.
// The singular company table name is preferred when both exist.
func ResolveArchiveTables(db *sql.DB) (ArchiveTables, error) {
	var at ArchiveTables

	for _, name := range []string{"deactivated_company", "deactivated_companies"} {
		ok, err := TableExists(db, "public", name)
		if err != nil {
			return at, err
		}
		if ok {
			at.Companies = name
			break
		}
	}

	ok, err := TableExists(db, "public", "deactivated_facilities")
	if err != nil {
		return at, err
	}
	if ok {
		at.Facilities = "deactivated_facilities"
	}

	return at, nil
}

func (at ArchiveTables) String() string {
	company := at.Companies
	if company == "" {
		company = "(none)"
	}
	facility := at.Facilities
	if facility == "" {
		facility = "(none)"
	}
	return fmt.Sprintf("company archive: %s, facility archive: %s", company, facility)
}
