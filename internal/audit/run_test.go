package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/claimsio"
	"github.com/gyeh/claimaudit/internal/config"
)

func writeClaims(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claims.parquet")
	if err := claimsio.WriteParquet(path, sampleBatch()); err != nil {
		t.Fatalf("write claims: %v", err)
	}
	return path
}

func TestRun_FromParquet(t *testing.T) {
	cfg := config.Default()
	cfg.ClaimsPath = writeClaims(t)

	result, err := Run(context.Background(), zerolog.Nop(), &cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ClaimCount != 3 || len(result.Ghost.Unbundling) != 1 {
		t.Errorf("claims=%d unbundling=%d, want 3/1", result.ClaimCount, len(result.Ghost.Unbundling))
	}
}

func TestRun_PhaseErrors(t *testing.T) {
	badRef := filepath.Join(t.TempDir(), "reference.yaml")
	if err := os.WriteFile(badRef, []byte("procedures:\n  - {code: \"X1\", severity: 9, category: \"Surgery\"}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		claims    string
		reference string
		phase     string
	}{
		{"missing claims", "/nonexistent/claims.json", "", PhaseLoad},
		{"invalid reference", writeClaims(t), badRef, PhaseReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.ClaimsPath = tt.claims
			cfg.ReferencePath = tt.reference

			_, err := Run(context.Background(), zerolog.Nop(), &cfg)
			var pe *PhaseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected PhaseError, got %v", err)
			}
			if pe.Phase != tt.phase {
				t.Errorf("phase = %q, want %q", pe.Phase, tt.phase)
			}
		})
	}
}

func TestRun_NarrativeWithoutKeyFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.ClaimsPath = writeClaims(t)
	cfg.Narrative.Enabled = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	result, err := Run(context.Background(), zerolog.Nop(), &cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Risk.NarrativeSource != "template" {
		t.Errorf("narrative source = %q, want template", result.Risk.NarrativeSource)
	}
}
