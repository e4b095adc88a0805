package dedupe

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/aginfo-gis/facility-tools/internal/audit"
	"github.com/aginfo-gis/facility-tools/internal/db"
	"github.com/aginfo-gis/facility-tools/internal/normalize"
)

// Company is the slice of a company row the merger works with.
type Company struct {
	ID      int64
	Name    string
	Website string
	Phone   string
	Notes   string
}

// companyScore weights field completeness. The most complete record becomes
// the canonical one; ties go to the lowest id via the fetch order.
func companyScore(c Company) int {
	s := 0
	if c.Name != "" {
		s += 3
	}
	if c.Website != "" {
		s += 2
	}
	if c.Phone != "" {
		s += 2
	}
	if c.Notes != "" {
		s += 2
	}
	return s
}

// FetchCompanies loads all companies that are not already archived as
// merged. Rows come back in id order so grouping and canonical ties are
// deterministic.
func (d *Deduper) FetchCompanies() ([]Company, error) {
	query := `
		SELECT c.company_id, c.name, c.website_url, c.phone_main, c.notes
		FROM public.company c
		ORDER BY c.company_id
	`
	if d.archive.Companies != "" {
		cols, err := db.TableColumns(d.db, "public", d.archive.Companies)
		if err != nil {
			return nil, err
		}
		query = fmt.Sprintf(`
			SELECT c.company_id, c.name, c.website_url, c.phone_main, c.notes
			FROM public.company c
			WHERE %s
			ORDER BY c.company_id
		`, archivedCompanyFilter(cols, d.archive.Companies))
	}

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		var website, phone, notes sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &website, &phone, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		c.Website = normalize.Whitespace(website.String)
		c.Phone = normalize.Whitespace(phone.String)
		c.Notes = notes.String
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// archivedCompanyFilter builds the predicate that hides already-merged
// companies from Phase A. NOT EXISTS rather than NOT IN: a NULL id in the
// archive table would make NOT IN match nothing at all.
func archivedCompanyFilter(cols map[string]bool, table string) string {
	idCol := "company_id"
	if !cols[idCol] && cols["original_company_id"] {
		idCol = "original_company_id"
	}
	filter := fmt.Sprintf("NOT EXISTS (SELECT 1 FROM public.%s a WHERE a.%s = c.company_id",
		pq.QuoteIdentifier(table), idCol)
	if cols["reason"] {
		filter += " AND a.reason = 'MERGED'"
	}
	return filter + ")"
}

// GroupCompanies buckets companies by normalized name and returns the
// groups with two or more members, ordered by the lowest member id.
func GroupCompanies(companies []Company) [][]Company {
	byKey := make(map[string][]Company)
	for _, c := range companies {
		key := normalize.CompanyKey(c.Name)
		if key == "" {
			continue
		}
		byKey[key] = append(byKey[key], c)
	}

	var groups [][]Company
	for _, members := range byKey {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0].ID < groups[j][0].ID })
	return groups
}

// ProposeCompanyCanonical picks the most complete member as canonical and
// backfills its empty fields from the rest. Notes are combined so nothing
// is lost. Returns the proposal and the loser ids.
func ProposeCompanyCanonical(group []Company) (Company, []int64) {
	best := group[0]
	for _, c := range group[1:] {
		if companyScore(c) > companyScore(best) {
			best = c
		}
	}

	merged := best
	var losers []int64
	for _, c := range group {
		if c.ID == best.ID {
			continue
		}
		losers = append(losers, c.ID)
		if merged.Website == "" && c.Website != "" {
			merged.Website = c.Website
		}
		if merged.Phone == "" && c.Phone != "" {
			merged.Phone = c.Phone
		}
		merged.Notes = normalize.CombineText(merged.Notes, c.Notes)
	}
	return merged, losers
}

// companyReport builds the review diff for one group.
func companyReport(idx, total int, group []Company, proposed Company) audit.GroupReport {
	report := audit.GroupReport{Kind: "company", Index: idx, Total: total}
	for _, c := range group {
		report.MemberIDs = append(report.MemberIDs, c.ID)
	}

	fields := []struct {
		name   string
		get    func(Company) string
		merged string
	}{
		{"name", func(c Company) string { return c.Name }, proposed.Name},
		{"website_url", func(c Company) string { return c.Website }, proposed.Website},
		{"phone_main", func(c Company) string { return c.Phone }, proposed.Phone},
		{"notes", func(c Company) string { return c.Notes }, proposed.Notes},
	}
	for _, f := range fields {
		first := f.get(group[0])
		same := true
		for _, c := range group[1:] {
			if f.get(c) != first {
				same = false
				break
			}
		}
		if same {
			report.Matches = append(report.Matches, f.name)
			continue
		}
		diff := audit.FieldDiff{Field: f.name, Merged: f.merged}
		for _, c := range group {
			diff.Values = append(diff.Values, audit.MemberValue{ID: c.ID, Value: f.get(c)})
		}
		report.Diffs = append(report.Diffs, diff)
	}
	return report
}

// trivialCompanyGroup reports whether the only differences across the group
// are trivial name variants. Such groups merge without a prompt.
func trivialCompanyGroup(group []Company, report audit.GroupReport) bool {
	for _, d := range report.Diffs {
		if d.Field != "name" {
			return false
		}
	}
	for _, c := range group[1:] {
		if !normalize.NamesDifferOnlyTrivially(group[0].Name, c.Name) {
			return false
		}
	}
	return true
}

// RunCompanies is Phase A: find duplicate companies, review each group and
// merge the confirmed ones. A group failure rolls back that group only.
func (d *Deduper) RunCompanies(ctx context.Context) (Summary, error) {
	var summary Summary

	companies, err := d.FetchCompanies()
	if err != nil {
		return summary, err
	}

	groups := GroupCompanies(companies)
	if d.opts.LimitCompanies > 0 && len(groups) > d.opts.LimitCompanies {
		groups = groups[:d.opts.LimitCompanies]
	}
	summary.Groups = len(groups)
	if len(groups) == 0 {
		fmt.Fprintln(d.out, "No duplicate companies found.")
		return summary, nil
	}

	fkRefs, err := db.ForeignKeyRefs(d.db, "public", "company")
	if err != nil {
		return summary, err
	}

	fmt.Fprintf(d.out, "Found %d duplicate company groups.\n", len(groups))

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		proposed, losers := ProposeCompanyCanonical(group)
		report := companyReport(i+1, len(groups), group, proposed)
		report.Print(d.out)

		for _, ref := range fkRefs {
			count, err := db.CountDependents(d.db, ref, losers)
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
			fmt.Fprintf(d.out, "  DRY RUN: would repoint FKs, update canonical company %d, archive %v.\n",
				proposed.ID, losers)
		} else if trivialCompanyGroup(group, report) {
			fmt.Fprintln(d.out, "  names differ only trivially, merging without prompt")
			state = StateConfirmed
		} else if d.decider.Confirm(fmt.Sprintf("Merge into company %d (%s)? [y/n] ", proposed.ID, proposed.Name)) {
			state = StateConfirmed
		} else {
			state = StateRejected
			fmt.Fprintln(d.out, "  skipped by operator")
		}

		if state == StateConfirmed {
			if err := d.applyCompanyMerge(proposed, losers, fkRefs); err != nil {
				state = StateFailed
				fmt.Fprintf(d.out, "  merge failed, rolled back: %v\n", err)
			} else {
				state = StateCommitted
				fmt.Fprintf(d.out, "  merged %v into company %d\n", losers, proposed.ID)
			}
		}
		summary.record(state)
		fmt.Fprintf(d.out, "  final state: %s\n", state)
	}

	return summary, nil
}

// applyCompanyMerge commits one company group: repoint dependents, update
// the canonical row, archive losers that nothing references anymore. All
// inside a single transaction.
func (d *Deduper) applyCompanyMerge(proposed Company, losers []int64, fkRefs []db.FKRef) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ref := range fkRefs {
		var updated int64
		if ref.Table == "facility" && ref.Column == "company_id" {
			updated, err = repointFacilityCompany(tx, losers, proposed.ID, d.out)
		} else {
			updated, err = db.RepointDependents(tx, ref, losers, proposed.ID)
		}
		if err != nil {
			return err
		}
		if updated > 0 {
			fmt.Fprintf(d.out, "  repointed %d rows in %s\n", updated, ref)
		}
	}

	_, err = tx.Exec(`
		UPDATE public.company
		SET website_url = NULLIF($1, ''),
		    phone_main  = NULLIF($2, ''),
		    notes       = NULLIF($3, '')
		WHERE company_id = $4
	`, proposed.Website, proposed.Phone, proposed.Notes, proposed.ID)
	if err != nil {
		return fmt.Errorf("failed to update canonical company %d: %w", proposed.ID, err)
	}

	// Losers still holding facilities (unique-key collisions above) stay in
	// the company table; the rest move to the archive.
	retained, err := companiesStillReferenced(tx, losers)
	if err != nil {
		return err
	}
	var archivable []int64
	for _, id := range losers {
		if !retained[id] {
			archivable = append(archivable, id)
		}
	}

	if d.archive.Companies != "" && len(archivable) > 0 {
		if err := d.archiveCompanies(tx, archivable); err != nil {
			return err
		}
	}
	if len(retained) > 0 {
		fmt.Fprintf(d.out, "  %d company record(s) retained, still referenced by facilities\n", len(retained))
	}

	return tx.Commit()
}

// repointFacilityCompany moves facilities to the canonical company, skipping
// any that would collide with the (company_id, name, city, state) unique key
// under the new owner. Collisions are left for Phase B to merge.
func repointFacilityCompany(tx *sql.Tx, oldIDs []int64, newID int64, out io.Writer) (int64, error) {
	rows, err := tx.Query(`
		SELECT f1.facility_id, f1.name, f1.city, f1.state
		FROM public.facility f1
		WHERE f1.company_id = ANY($1)
		  AND EXISTS (
		    SELECT 1 FROM public.facility f2
		    WHERE f2.company_id = $2
		      AND f2.name = f1.name
		      AND COALESCE(f2.city, '') = COALESCE(f1.city, '')
		      AND COALESCE(f2.state, '') = COALESCE(f1.state, '')
		  )
	`, pq.Array(oldIDs), newID)
	if err != nil {
		return 0, fmt.Errorf("failed to check facility name collisions: %w", err)
	}
	defer rows.Close()

	var conflictIDs []int64
	for rows.Next() {
		var id int64
		var name, city, state sql.NullString
		if err := rows.Scan(&id, &name, &city, &state); err != nil {
			return 0, err
		}
		conflictIDs = append(conflictIDs, id)
		fmt.Fprintf(out, "  facility %d (%q, %s, %s) collides under new owner, leaving in place\n",
			id, name.String, city.String, state.String)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	query := `UPDATE public.facility SET company_id = $1 WHERE company_id = ANY($2)`
	args := []interface{}{newID, pq.Array(oldIDs)}
	if len(conflictIDs) > 0 {
		query += ` AND facility_id != ALL($3)`
		args = append(args, pq.Array(conflictIDs))
	}
	res, err := tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to repoint facilities: %w", err)
	}
	return res.RowsAffected()
}

func companiesStillReferenced(tx *sql.Tx, ids []int64) (map[int64]bool, error) {
	rows, err := tx.Query(`
		SELECT DISTINCT company_id FROM public.facility WHERE company_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to check remaining company references: %w", err)
	}
	defer rows.Close()

	retained := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		retained[id] = true
	}
	return retained, rows.Err()
}

// archiveCompanies copies the loser rows into the archive table over the
// columns the two tables share. The live rows stay in place, orphaned;
// business data is never deleted. Runs in the group's transaction.
func (d *Deduper) archiveCompanies(tx *sql.Tx, ids []int64) error {
	archiveCols, err := db.TableColumns(d.db, "public", d.archive.Companies)
	if err != nil {
		return err
	}
	companyCols, err := db.TableColumns(d.db, "public", "company")
	if err != nil {
		return err
	}

	var common []string
	for col := range companyCols {
		if archiveCols[col] {
			common = append(common, pq.QuoteIdentifier(col))
		}
	}
	if len(common) == 0 {
		return fmt.Errorf("archive table %s shares no columns with company", d.archive.Companies)
	}
	sort.Strings(common)
	colList := strings.Join(common, ", ")

	_, err = tx.Exec(fmt.Sprintf(`
		INSERT INTO public.%s (%s)
		SELECT %s FROM public.company WHERE company_id = ANY($1)
	`, pq.QuoteIdentifier(d.archive.Companies), colList, colList), pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to archive companies %v: %w", ids, err)
	}
	fmt.Fprintf(d.out, "  archived %d company record(s) to %s\n", len(ids), d.archive.Companies)
	return nil
}
