package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aginfo-gis/facility-tools/internal/audit"
	"github.com/aginfo-gis/facility-tools/internal/config"
	"github.com/aginfo-gis/facility-tools/internal/db"
	"github.com/aginfo-gis/facility-tools/internal/geocode"
	"github.com/aginfo-gis/facility-tools/internal/resolver"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := createRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createRootCmd() *cobra.Command {
	var (
		limit           int
		dryRun          bool
		sleep           float64
		logCSV          string
		where           string
		overwrite       bool
		geomFromAddress bool
		marked          bool
		notUpdatedAfter string
		useGoogle       bool
		countryCodes    string
		timeout         int
	)

	cmd := &cobra.Command{
		Use:   "geofix",
		Short: "Repair facility coordinates from their addresses",
		Long: `Re-geocodes facility rows whose coordinates are missing or obviously
wrong and writes back latitude/longitude. The database trigger rebuilds
the geometry column. Every processed row gets one line in the audit CSV.`,
		Run: func(cmd *cobra.Command, args []string) {
			conn, err := db.NewConnection()
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer conn.Close()

			geocoder, err := buildGeocoder(useGoogle, countryCodes, time.Duration(timeout)*time.Second)
			if err != nil {
				log.Fatalf("Failed to configure geocoder: %v", err)
			}

			auditLog, err := audit.NewCSVLog(logCSV)
			if err != nil {
				log.Fatalf("Failed to open audit log: %v", err)
			}
			defer auditLog.Close()

			fmt.Printf("Backend: %s, limit: %d, dry run: %v\n", geocoder.Name(), limit, dryRun)
			fmt.Printf("Audit log: %s\n", logCSV)

			r := resolver.New(conn.DB, geocoder, auditLog, resolver.Options{
				Limit:  limit,
				DryRun: dryRun,
				Sleep:  time.Duration(sleep * float64(time.Second)),
				Filter: resolver.Filter{
					Where:               where,
					Overwrite:           overwrite,
					GeomFromAddressOnly: geomFromAddress,
					MarkedOnly:          marked,
					NotUpdatedAfter:     notUpdatedAfter,
				},
			})

			summary, err := r.Run(context.Background())
			if err != nil {
				log.Fatalf("Run failed: %v", err)
			}
			summary.Print()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 500, "Maximum number of facilities to process")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Geocode and log but do not write to the database")
	cmd.Flags().Float64Var(&sleep, "sleep", 1.1, "Seconds to sleep between geocoder calls")
	cmd.Flags().StringVar(&logCSV, "log-csv", "facility_geofix_log.csv", "Audit CSV path")
	cmd.Flags().StringVar(&where, "where", "", "Extra SQL predicate to select facilities")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Process every facility, not just bad coordinates")
	cmd.Flags().BoolVar(&geomFromAddress, "geom-from-address-false", false, "Only facilities with geom_from_address = FALSE")
	cmd.Flags().BoolVar(&marked, "marked", false, "Only facilities with marked = TRUE")
	cmd.Flags().StringVar(&notUpdatedAfter, "not-updated-after", "", "Only facilities not updated after this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&useGoogle, "use-google", false, "Use the Google geocoder instead of Nominatim")
	cmd.Flags().StringVar(&countryCodes, "country-codes", "us", "Nominatim countrycodes restriction")
	cmd.Flags().IntVar(&timeout, "timeout", 30, "Geocoder HTTP timeout in seconds")

	return cmd
}

// buildGeocoder picks the provider. Nominatim is the default; Google needs
// an API key in the environment.
func buildGeocoder(useGoogle bool, countryCodes string, timeout time.Duration) (geocode.Geocoder, error) {
	if useGoogle {
		apiKey, err := config.RequireEnv("GOOGLE_API_KEY")
		if err != nil {
			return nil, err
		}
		return geocode.NewGoogle(apiKey, timeout), nil
	}
	userAgent := config.GetEnv("NOMINATIM_USER_AGENT", "facility-tools-geofix/1.0")
	return geocode.NewNominatim(userAgent, countryCodes, timeout), nil
}
