package dedupe

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/aginfo-gis/facility-tools/internal/db"
)

// FetchActiveFacilities loads every facility that has not been deactivated,
// in id order.
func (d *Deduper) FetchActiveFacilities() ([]Record, error) {
	rows, err := d.db.Query(`
		SELECT
		    facility_id, company_id, facility_type_id,
		    name, description,
		    address_line1, address_line2, city, county, state, postal_code,
		    latitude, longitude,
		    status, website_url, phone_main, email_main,
		    notes, imported_source, geom_from_address
		FROM public.facility
		WHERE status IS DISTINCT FROM 'INACTIVE'
		ORDER BY facility_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facilities: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var r Record
	var companyID, typeID sql.NullInt64
	var desc, line1, line2, city, county, state, postal sql.NullString
	var lat, lon sql.NullFloat64
	var status, website, phone, email, notes, source sql.NullString
	var gfa sql.NullBool

	err := rows.Scan(
		&r.ID, &companyID, &typeID,
		&r.Name, &desc,
		&line1, &line2, &city, &county, &state, &postal,
		&lat, &lon,
		&status, &website, &phone, &email,
		&notes, &source, &gfa,
	)
	if err != nil {
		return r, err
	}

	r.CompanyID = companyID.Int64
	if typeID.Valid {
		v := typeID.Int64
		r.FacilityTypeID = &v
	}
	r.Description = desc.String
	r.AddressLine1 = line1.String
	r.AddressLine2 = line2.String
	r.City = city.String
	r.County = county.String
	r.State = state.String
	r.PostalCode = postal.String
	if lat.Valid {
		v := lat.Float64
		r.Lat = &v
	}
	if lon.Valid {
		v := lon.Float64
		r.Lon = &v
	}
	r.Status = status.String
	r.Website = website.String
	r.Phone = phone.String
	r.Email = email.String
	r.Notes = notes.String
	r.ImportedSource = source.String
	r.GeomFromAddress = gfa.Valid && gfa.Bool
	return r, nil
}

// RunFacilities is Phase B: group active facilities, review each group and
// replace the confirmed ones with a single synthesized record. A group
// failure rolls back that group only.
func (d *Deduper) RunFacilities(ctx context.Context) (Summary, error) {
	var summary Summary

	records, err := d.FetchActiveFacilities()
	if err != nil {
		return summary, err
	}

	addressGroups := BuildFacilityGroups(records, d.opts.MaxMeters)
	keyGroups := BuildUniqueKeyGroups(records)
	groups := MergeGroupLists(addressGroups, keyGroups)
	if d.opts.LimitFacilities > 0 && len(groups) > d.opts.LimitFacilities {
		groups = groups[:d.opts.LimitFacilities]
	}
	summary.Groups = len(groups)
	if len(groups) == 0 {
		fmt.Fprintln(d.out, "No duplicate facilities found.")
		return summary, nil
	}

	fkRefs, err := db.ForeignKeyRefs(d.db, "public", "facility")
	if err != nil {
		return summary, err
	}

	fmt.Fprintf(d.out, "Found %d duplicate facility groups.\n", len(groups))

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		proposed, err := ProposeFacilityMerge(group)
		if err != nil {
			fmt.Fprintf(d.out, "\nGroup %d/%d: %v\n", i+1, len(groups), err)
			summary.record(StateFailed)
			continue
		}
		report := facilityReport(i+1, len(groups), group, proposed)
		report.Print(d.out)

		oldIDs := memberIDs(group)
		for _, ref := range fkRefs {
			count, err := db.CountDependents(d.db, ref, oldIDs)
			if err != nil {
				fmt.Fprintf(d.out, "  warning: %v\n", err)
				continue
			}
			if count > 0 {
				fmt.Fprintf(d.out, "  will repoint %d rows in %s\n", count, ref)
			}
		}

		state := StateReviewed
		if !d.opts.Apply {
			fmt.Fprintln(d.out, "  DRY RUN: would insert merged facility, repoint FKs, archive and deactivate originals.")
		} else if d.decider.Confirm(fmt.Sprintf("Merge facilities %v into %q? [y/n] ", oldIDs, proposed.Name)) {
			state = StateConfirmed
		} else {
			state = StateRejected
			fmt.Fprintln(d.out, "  skipped by operator")
		}

		if state == StateConfirmed {
			newID, err := d.applyFacilityMerge(group, proposed, fkRefs)
			if err != nil {
				state = StateFailed
				fmt.Fprintf(d.out, "  merge failed, rolled back: %v\n", err)
			} else {
				state = StateCommitted
				fmt.Fprintf(d.out, "  merged %v into facility %d\n", oldIDs, newID)
			}
		}
		summary.record(state)
		fmt.Fprintf(d.out, "  final state: %s\n", state)
	}

	return summary, nil
}

// applyFacilityMerge commits one facility group: find or insert the target
// record, repoint dependents, archive and deactivate the originals. All
// inside a single transaction.
func (d *Deduper) applyFacilityMerge(group []Record, proposed Record, fkRefs []db.FKRef) (int64, error) {
	oldIDs := memberIDs(group)

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	newID, isNew, err := insertOrReuseFacility(tx, proposed, oldIDs)
	if err != nil {
		return 0, err
	}
	if !isNew {
		fmt.Fprintf(d.out, "  reusing facility %d as merge target\n", newID)
		if err := updateMergeTarget(tx, newID, proposed); err != nil {
			return 0, err
		}
	}

	for _, ref := range fkRefs {
		updated, err := db.RepointDependents(tx, ref, oldIDs, newID)
		if err != nil {
			return 0, err
		}
		if updated > 0 {
			fmt.Fprintf(d.out, "  repointed %d rows in %s\n", updated, ref)
		}
	}

	detail := fmt.Sprintf("Merged facilities into canonical record. Originals: %v", oldIDs)
	for _, oldID := range oldIDs {
		if oldID == newID {
			continue
		}
		if d.archive.Facilities != "" {
			if err := archiveFacility(tx, d.archive.Facilities, oldID, newID, detail); err != nil {
				return 0, err
			}
		}
		if _, err := tx.Exec(`
			UPDATE public.facility SET status = 'INACTIVE' WHERE facility_id = $1
		`, oldID); err != nil {
			return 0, fmt.Errorf("failed to deactivate facility %d: %w", oldID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit facility merge: %w", err)
	}
	return newID, nil
}

// insertOrReuseFacility finds an existing row matching the proposal's
// unique key, preferring a group member, before inserting a fresh row.
// Reusing a member avoids tripping the (company_id, name, city, state)
// unique constraint on insert.
func insertOrReuseFacility(tx *sql.Tx, proposed Record, excludeIDs []int64) (int64, bool, error) {
	var id int64
	err := tx.QueryRow(`
		SELECT facility_id
		FROM public.facility
		WHERE facility_id = ANY($1)
		  AND company_id = $2
		  AND name = $3
		  AND COALESCE(city, '') = COALESCE($4, '')
		  AND COALESCE(state, '') = COALESCE($5, '')
		LIMIT 1
	`, pq.Array(excludeIDs), proposed.CompanyID, proposed.Name, proposed.City, proposed.State).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("failed to check merge group for existing target: %w", err)
	}

	err = tx.QueryRow(`
		SELECT facility_id
		FROM public.facility
		WHERE company_id = $1
		  AND name = $2
		  AND COALESCE(city, '') = COALESCE($3, '')
		  AND COALESCE(state, '') = COALESCE($4, '')
		  AND facility_id != ALL($5)
		LIMIT 1
	`, proposed.CompanyID, proposed.Name, proposed.City, proposed.State, pq.Array(excludeIDs)).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("failed to check for existing target: %w", err)
	}

	err = tx.QueryRow(`
		INSERT INTO public.facility (
		    company_id, facility_type_id,
		    name, description,
		    address_line1, address_line2, city, county, state, postal_code,
		    latitude, longitude,
		    status, website_url, phone_main, email_main,
		    notes, imported_source, geom_from_address
		) VALUES (
		    $1, $2, $3, NULLIF($4, ''),
		    NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''),
		    $11, $12,
		    $13, NULLIF($14, ''), NULLIF($15, ''), NULLIF($16, ''),
		    NULLIF($17, ''), NULLIF($18, ''), $19
		)
		RETURNING facility_id
	`,
		proposed.CompanyID, nullableInt(proposed.FacilityTypeID),
		proposed.Name, proposed.Description,
		proposed.AddressLine1, proposed.AddressLine2, proposed.City, proposed.County, proposed.State, proposed.PostalCode,
		proposed.Lat, proposed.Lon,
		proposed.Status, proposed.Website, proposed.Phone, proposed.Email,
		proposed.Notes, proposed.ImportedSource, proposed.GeomFromAddress,
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert merged facility: %w", err)
	}
	return id, true, nil
}

// updateMergeTarget writes the merged fields onto a reused row. The unique
// key columns stay untouched so the row keeps its identity.
func updateMergeTarget(tx *sql.Tx, id int64, proposed Record) error {
	_, err := tx.Exec(`
		UPDATE public.facility
		SET facility_type_id  = $1,
		    description       = NULLIF($2, ''),
		    address_line1     = NULLIF($3, ''),
		    address_line2     = NULLIF($4, ''),
		    county            = NULLIF($5, ''),
		    postal_code       = NULLIF($6, ''),
		    latitude          = $7,
		    longitude         = $8,
		    status            = $9,
		    website_url       = NULLIF($10, ''),
		    phone_main        = NULLIF($11, ''),
		    email_main        = NULLIF($12, ''),
		    notes             = NULLIF($13, ''),
		    imported_source   = NULLIF($14, ''),
		    geom_from_address = $15
		WHERE facility_id = $16
	`,
		nullableInt(proposed.FacilityTypeID), proposed.Description,
		proposed.AddressLine1, proposed.AddressLine2, proposed.County, proposed.PostalCode,
		proposed.Lat, proposed.Lon,
		proposed.Status, proposed.Website, proposed.Phone, proposed.Email,
		proposed.Notes, proposed.ImportedSource, proposed.GeomFromAddress,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update merge target %d: %w", id, err)
	}
	return nil
}

// archiveFacility snapshots the loser row into the archive table before it
// is deactivated.
func archiveFacility(tx *sql.Tx, table string, oldID, newID int64, detail string) error {
	_, err := tx.Exec(fmt.Sprintf(`
		INSERT INTO public.%s
		    (original_facility_id, reason, merged_to_facility_id, reason_detail, facility_snapshot)
		SELECT f.facility_id, 'MERGED', $1, $2, to_jsonb(f)
		FROM public.facility f
		WHERE f.facility_id = $3
	`, pq.QuoteIdentifier(table)), newID, detail, oldID)
	if err != nil {
		return fmt.Errorf("failed to archive facility %d: %w", oldID, err)
	}
	return nil
}

func nullableInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
