package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimaudit/internal/audit"
	"github.com/gyeh/claimaudit/internal/claimsio"
	"github.com/gyeh/claimaudit/internal/exitcode"
	"github.com/gyeh/claimaudit/internal/logging"
	"github.com/gyeh/claimaudit/internal/normalize"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dry-run validation and batch stats (no analysis)",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&cfg.ClaimsPath, "claims", "", "Path to claims file, .json or .parquet (required)")
	_ = inspectCmd.MarkFlagRequired("claims")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sha, err := normalize.FileHash(cfg.ClaimsPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.ValidationError)
	}

	stat, err := os.Stat(cfg.ClaimsPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to stat file")
		os.Exit(exitcode.ValidationError)
	}

	claims, err := claimsio.Load(cfg.ClaimsPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load claims")
		os.Exit(exitcode.ValidationError)
	}

	db, err := audit.LoadReference(cfg.ReferencePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load reference tables")
		os.Exit(exitcode.ReferenceError)
	}

	var billed float64
	var withNotes, withCoords, badDates, badTimes int
	patients := make(map[string]bool)
	departments := make(map[string]int)
	unknown := make(map[string]int)
	for i := range claims {
		c := &claims[i]
		billed += c.BilledAmount
		if c.PatientName != "" {
			patients[c.PatientName] = true
		}
		departments[c.Department]++
		if strings.TrimSpace(c.ClinicalNotes) != "" {
			withNotes++
		}
		if c.HasCoordinates() {
			withCoords++
		}
		if normalize.ParseDate(c.ServiceDate) == nil {
			badDates++
		}
		if _, ok := normalize.ServiceClock(c.ServiceDate, c.ServiceTime); !ok {
			badTimes++
		}
		if _, ok := db.Procedure(c.ProcedureCode); !ok {
			unknown[c.ProcedureCode]++
		}
	}

	fmt.Println("=== claimaudit inspect ===")
	fmt.Printf("File:        %s\n", cfg.ClaimsPath)
	fmt.Printf("SHA-256:     %s\n", sha)
	fmt.Printf("Size:        %d bytes\n", stat.Size())
	fmt.Printf("Fingerprint: %s\n", normalize.BatchFingerprint(claims))
	fmt.Printf("Claims:      %d\n", len(claims))
	fmt.Printf("Patients:    %s\n", strings.Join(sortedKeys(patients), ", "))
	fmt.Printf("Billed:      $%.2f\n", normalize.RoundCents(billed))
	fmt.Println()
	fmt.Printf("With clinical notes:    %d/%d\n", withNotes, len(claims))
	fmt.Printf("With coordinates:       %d/%d\n", withCoords, len(claims))
	fmt.Printf("Date defaults to today: %d\n", badDates)
	fmt.Printf("Time defaults to noon:  %d\n", badTimes)
	fmt.Println()
	fmt.Println("Departments:")
	for _, d := range sortedKeys(departments) {
		name := d
		if name == "" {
			name = "(none)"
		}
		fmt.Printf("  %-24s %d\n", name, departments[d])
	}
	if len(unknown) > 0 {
		fmt.Println()
		fmt.Println("Unknown procedure codes (skipped by severity and ghost checks):")
		for _, code := range sortedKeys(unknown) {
			fmt.Printf("  %-10s %d claim(s)\n", code, unknown[code])
		}
	}
	fmt.Println("\nValidation: OK")
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
