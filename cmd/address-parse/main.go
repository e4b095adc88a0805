package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	postal "github.com/openvenues/gopostal/parser"

	"github.com/aginfo-gis/facility-tools/internal/config"
	"github.com/aginfo-gis/facility-tools/internal/db"
	"github.com/aginfo-gis/facility-tools/internal/normalize"
)

const version = "1.0.0-address-parse"

func main() {
	var (
		command = flag.String("cmd", "", "Command: test-parse, preprocess")
		address = flag.String("address", "", "Single address to test parsing")
		limit   = flag.Int("limit", 1000, "Number of facilities to process (0 = all)")
		apply   = flag.Bool("apply", false, "Write cleaned street lines back (default reports only)")
	)
	flag.Parse()

	if *command == "" {
		printUsage()
		return
	}

	fmt.Printf("Facility address parser v%s\n", version)
	fmt.Println("Using libpostal to break addresses into components")
	fmt.Println()

	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	switch *command {
	case "test-parse":
		if *address == "" {
			fmt.Println("Error: -address required for test-parse")
			return
		}
		testParse(*address)
	case "preprocess":
		conn, err := db.NewConnection()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close()
		if err := preprocessFacilities(conn.DB, *limit, *apply); err != nil {
			log.Fatalf("Preprocess failed: %v", err)
		}
	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

// testParse shows libpostal's component breakdown next to the rural
// abbreviation expansion, for eyeballing a single troublesome address.
func testParse(address string) {
	fmt.Printf("Input: %s\n", address)
	fmt.Println("Components:")
	for _, component := range postal.ParseAddress(address) {
		fmt.Printf("  %-15s %s\n", component.Label+":", component.Value)
	}

	cleaned := normalize.CleanStreet(address)
	if cleaned == "" {
		fmt.Println("Cleaned: (no usable street)")
		return
	}
	fmt.Printf("Cleaned: %s\n", cleaned)
	if normalize.LooksLikeNoStreet(cleaned) {
		fmt.Println("Note: value does not look like a deliverable street address")
	}
}

// preprocessFacilities walks facility street lines, reports the ones whose
// cleaned form differs and optionally writes the cleaned form back.
func preprocessFacilities(conn *sql.DB, limit int, apply bool) error {
	query := `
		SELECT facility_id, address_line1, COALESCE(state, '')
		FROM public.facility
		WHERE address_line1 IS NOT NULL AND address_line1 != ''
		ORDER BY facility_id
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := conn.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to fetch facility addresses: %w", err)
	}
	defer rows.Close()

	type change struct {
		id      int64
		cleaned string
	}
	var changes []change
	processed := 0
	for rows.Next() {
		var id int64
		var line1, state string
		if err := rows.Scan(&id, &line1, &state); err != nil {
			return fmt.Errorf("failed to scan facility: %w", err)
		}
		processed++

		cleaned := normalize.CleanStreet(line1)
		if cleaned == "" {
			fmt.Printf("  %d: %q has no usable street\n", id, line1)
			continue
		}
		cleaned = normalize.TitleStreet(cleaned, state)
		if cleaned == line1 {
			continue
		}
		fmt.Printf("  %d: %q -> %q\n", id, line1, cleaned)
		changes = append(changes, change{id: id, cleaned: cleaned})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fmt.Printf("\nProcessed %d facilities, %d street lines would change.\n", processed, len(changes))
	if !apply {
		if len(changes) > 0 {
			fmt.Println("DRY RUN: pass -apply to write the cleaned street lines.")
		}
		return nil
	}

	for _, c := range changes {
		_, err := conn.Exec(`
			UPDATE public.facility SET address_line1 = $1 WHERE facility_id = $2
		`, c.cleaned, c.id)
		if err != nil {
			return fmt.Errorf("failed to update facility %d: %w", c.id, err)
		}
	}
	fmt.Printf("Updated %d facilities.\n", len(changes))
	return nil
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  address-parse -cmd test-parse -address \"1005 CR 5, Hays, KS 67601\"")
	fmt.Println("  address-parse -cmd preprocess -limit 1000")
	fmt.Println("  address-parse -cmd preprocess -limit 0 -apply")
}
