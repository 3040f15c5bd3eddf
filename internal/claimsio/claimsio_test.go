package claimsio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimaudit/internal/model"
)

func ptr(f float64) *float64 { return &f }

func sampleClaims() []model.ClaimLineItem {
	return []model.ClaimLineItem{
		{ClaimID: "C1", PatientName: "Jane Doe", ServiceDate: "2024-03-01", ServiceTime: "09:00", Department: "Emergency",
			Latitude: ptr(40.7128), Longitude: ptr(-74.006), ProcedureCode: "99285",
			ProcedureDescription: "ED visit", BilledAmount: 650, ClinicalNotes: "stable"},
		{ClaimID: "C2", PatientName: "Jane Doe", ServiceDate: "2024-03-01", ProcedureCode: "85025", BilledAmount: 30.25},
	}
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.parquet")
	want := sampleClaims()
	if err := WriteParquet(path, want); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ParquetMissingColumns(t *testing.T) {
	type partialRow struct {
		ClaimID string `parquet:"claim_id"`
		Notes   string `parquet:"clinical_notes"`
	}
	path := filepath.Join(t.TempDir(), "partial.parquet")
	if err := parquet.WriteFile(path, []partialRow{{ClaimID: "C1", Notes: "x"}}); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "procedure_code") {
		t.Fatalf("expected missing procedure_code error, got %v", err)
	}
}

func TestReadJSON_ArrayAndWrapper(t *testing.T) {
	array := `[{"claim_id":"A","procedure_code":" 99-285 ","billed_amount":100.456},
	           {"claim_id":"B","procedure_code":"j1885","billed_amount":-5}]`
	wrapped := `{"claims":` + array + `}`

	for name, doc := range map[string]string{"array": array, "wrapper": wrapped} {
		t.Run(name, func(t *testing.T) {
			claims, err := ReadJSON(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("ReadJSON: %v", err)
			}
			if len(claims) != 2 {
				t.Fatalf("expected 2 claims, got %d", len(claims))
			}
			if claims[0].ProcedureCode != "99285" || claims[1].ProcedureCode != "J1885" {
				t.Errorf("codes not normalized: %q %q", claims[0].ProcedureCode, claims[1].ProcedureCode)
			}
			if claims[0].BilledAmount != 100.46 || claims[1].BilledAmount != 0 {
				t.Errorf("amounts not coerced: %v %v", claims[0].BilledAmount, claims[1].BilledAmount)
			}
		})
	}
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(f, sampleClaims()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	f.Close()

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(sampleClaims(), got); diff != "" {
		t.Errorf("claims mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckIDs(t *testing.T) {
	err := CheckIDs([]model.ClaimLineItem{{ClaimID: "A"}, {ClaimID: "B"}, {ClaimID: "A"}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	err = CheckIDs([]model.ClaimLineItem{{ClaimID: "A"}, {ClaimID: "  "}})
	if !errors.Is(err, ErrMissingID) {
		t.Errorf("expected missing id error, got %v", err)
	}
	if err := CheckIDs(nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
}

func TestFormatOf(t *testing.T) {
	if f, err := FormatOf("x/claims.PARQUET"); err != nil || f != FormatParquet {
		t.Errorf("got %q, %v", f, err)
	}
	if _, err := FormatOf("claims.csv"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected unknown format, got %v", err)
	}
}
