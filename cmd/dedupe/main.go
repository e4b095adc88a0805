package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aginfo-gis/facility-tools/internal/config"
	"github.com/aginfo-gis/facility-tools/internal/db"
	"github.com/aginfo-gis/facility-tools/internal/dedupe"
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
		apply           bool
		yes             bool
		maxMeters       float64
		limitCompanies  int
		limitFacilities int
	)

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Merge duplicate companies and facilities",
		Long: `Finds duplicate companies (same normalized name) and facilities (same
owner and address, close together), reviews each group and merges the
confirmed ones. Companies merge first so facility grouping sees final
company ids. Default is a dry run; nothing is written without --apply.`,
		Run: func(cmd *cobra.Command, args []string) {
			conn, err := db.NewConnection()
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer conn.Close()

			archive, err := db.ResolveArchiveTables(conn.DB)
			if err != nil {
				log.Fatalf("Failed to resolve archive tables: %v", err)
			}
			fmt.Printf("Archive tables: %s\n", archive)
			if !apply {
				fmt.Println("DRY RUN: pass --apply to write changes.")
			}

			var decider dedupe.Decider = &dedupe.InteractiveDecider{In: os.Stdin, Out: os.Stdout}
			if yes {
				decider = &dedupe.AutoDecider{Answer: true}
			}

			d := dedupe.New(conn.DB, archive, decider, dedupe.Options{
				Apply:           apply,
				MaxMeters:       maxMeters,
				LimitCompanies:  limitCompanies,
				LimitFacilities: limitFacilities,
			})

			if _, _, err := d.Run(context.Background()); err != nil {
				log.Fatalf("Run failed: %v", err)
			}
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Write merges to the database (default is dry run)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Merge every group without prompting (requires --apply to write)")
	cmd.Flags().Float64Var(&maxMeters, "max-meters", dedupe.DefaultMaxMeters, "Split address groups whose members are farther apart than this")
	cmd.Flags().IntVar(&limitCompanies, "limit-companies", 0, "Process at most this many company groups (0 = all)")
	cmd.Flags().IntVar(&limitFacilities, "limit-facilities", 0, "Process at most this many facility groups (0 = all)")

	return cmd
}
