package db

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// FKRef identifies a single-column foreign key that references another
// table's primary key.
type FKRef struct {
	Schema string
	Table  string
	Column string
}

func (r FKRef) String() string {
	return fmt.Sprintf("%s.%s.%s", r.Schema, r.Table, r.Column)
}

// TableExists reports whether schema.table exists.
func TableExists(db *sql.DB, schema, table string) (bool, error) {
	var one int
	err := db.QueryRow(`
		SELECT 1
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2
		LIMIT 1
	`, schema, table).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check table %s.%s: %w", schema, table, err)
	}
	return true, nil
}

// TableColumns returns the set of column names of schema.table.
func TableColumns(db *sql.DB, schema, table string) (map[string]bool, error) {
	rows, err := db.Query(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
	`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// ForeignKeyRefs finds every single-column foreign key in the database that
// references schema.table. The dependent table list is discovered from
// pg_catalog at run time so newly added tables need no code change.
func ForeignKeyRefs(db *sql.DB, schema, table string) ([]FKRef, error) {
	rows, err := db.Query(`
		SELECT
		  nsp_child.nspname  AS fk_schema,
		  rel_child.relname  AS fk_table,
		  att_child.attname  AS fk_column
		FROM pg_constraint con
		JOIN pg_class rel_parent ON rel_parent.oid = con.confrelid
		JOIN pg_namespace nsp_parent ON nsp_parent.oid = rel_parent.relnamespace
		JOIN pg_class rel_child ON rel_child.oid = con.conrelid
		JOIN pg_namespace nsp_child ON nsp_child.oid = rel_child.relnamespace
		JOIN unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON TRUE
		JOIN pg_attribute att_child ON att_child.attrelid = con.conrelid AND att_child.attnum = k.attnum
		WHERE con.contype = 'f'
		  AND nsp_parent.nspname = $1
		  AND rel_parent.relname = $2
		  AND array_length(con.conkey, 1) = 1
		ORDER BY fk_schema, fk_table, fk_column
	`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to discover foreign keys referencing %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var refs []FKRef
	for rows.Next() {
		var ref FKRef
		if err := rows.Scan(&ref.Schema, &ref.Table, &ref.Column); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// CountDependents counts rows in the referencing table that point at any of
// the given ids.
func CountDependents(db *sql.DB, ref FKRef, ids []int64) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s WHERE %s = ANY($1)",
		pq.QuoteIdentifier(ref.Schema), pq.QuoteIdentifier(ref.Table), pq.QuoteIdentifier(ref.Column))

	var count int64
	if err := db.QueryRow(query, pq.Array(ids)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dependents in %s: %w", ref, err)
	}
	return count, nil
}

// RepointDependents updates every row in the referencing table that points
// at one of oldIDs to point at newID instead. Runs inside the caller's
// transaction so a merge group commits or rolls back as a unit.
func RepointDependents(tx *sql.Tx, ref FKRef, oldIDs []int64, newID int64) (int64, error) {
	query := fmt.Sprintf("UPDATE %s.%s SET %s = $1 WHERE %s = ANY($2)",
		pq.QuoteIdentifier(ref.Schema), pq.QuoteIdentifier(ref.Table),
		pq.QuoteIdentifier(ref.Column), pq.QuoteIdentifier(ref.Column))

	res, err := tx.Exec(query, newID, pq.Array(oldIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to repoint %s: %w", ref, err)
	}
	return res.RowsAffected()
}
