// mkclaims writes a sample claims batch for trying out claimaudit.
// The output format follows the file extension (.json or .parquet).
// Usage: go run ./cmd/mkclaims --out testdata/suspicious.parquet --scenario suspicious
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/gyeh/claimaudit/internal/claimsio"
	"github.com/gyeh/claimaudit/internal/model"
)

func main() {
	out := flag.String("out", "testdata/suspicious.parquet", "output file (.json or .parquet)")
	scenario := flag.String("scenario", "suspicious", "batch to write: clean or suspicious")
	patient := flag.String("patient", "Jane Doe", "patient name on every claim")
	flag.Parse()

	build, ok := scenarios[*scenario]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown scenario %q (have: %v)\n", *scenario, scenarioNames())
		os.Exit(1)
	}
	claims := build(*patient)

	format, err := claimsio.FormatOf(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	switch format {
	case claimsio.FormatParquet:
		err = claimsio.WriteParquet(*out, claims)
	default:
		var f *os.File
		f, err = os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create output: %v\n", err)
			os.Exit(1)
		}
		err = claimsio.WriteJSON(f, claims)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}

	var billed float64
	for _, c := range claims {
		billed += c.BilledAmount
	}
	fmt.Printf("Wrote %d claims ($%.2f billed) to %s\n", len(claims), billed, *out)
}

var scenarios = map[string]func(patient string) []model.ClaimLineItem{
	"clean":      cleanBatch,
	"suspicious": suspiciousBatch,
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func coord(v float64) *float64 { return &v }

func cleanBatch(patient string) []model.ClaimLineItem {
	return []model.ClaimLineItem{
		{ClaimID: "CLM-100", PatientName: patient, ServiceDate: "2024-03-04", ServiceTime: "10:00", Department: "Primary Care",
			Latitude: coord(40.7411), Longitude: coord(-73.9897), ProcedureCode: "99213",
			ProcedureDescription: "Office visit, low complexity", BilledAmount: 110,
			ClinicalNotes: "Routine follow-up for knee pain. Patient stable, mild discomfort on stairs, improving with exercise."},
		{ClaimID: "CLM-101", PatientName: patient, ServiceDate: "2024-03-04", ServiceTime: "10:45", Department: "Radiology",
			Latitude: coord(40.7411), Longitude: coord(-73.9897), ProcedureCode: "73560",
			ProcedureDescription: "Knee x-ray", BilledAmount: 80,
			ClinicalNotes: "Knee x-ray, 2 views obtained. Radiograph shows mild joint space narrowing, no fracture."},
		{ClaimID: "CLM-102", PatientName: patient, ServiceDate: "2024-03-11", ServiceTime: "15:00", Department: "Physical Therapy",
			ProcedureCode: "97110", ProcedureDescription: "Therapeutic exercise", BilledAmount: 95,
			ClinicalNotes: "Therapy session: strengthening and range of motion exercise for the knee, tolerated well."},
	}
}

func suspiciousBatch(patient string) []model.ClaimLineItem {
	return []model.ClaimLineItem{
		{ClaimID: "CLM-1", PatientName: patient, ServiceDate: "2024-03-01", ServiceTime: "09:00", Department: "Emergency",
			Latitude: coord(40.7128), Longitude: coord(-74.0060), ProcedureCode: "99285",
			ProcedureDescription: "ED visit, high severity", BilledAmount: 1450,
			ClinicalNotes: "stable, mild discomfort, discharged"},
		{ClaimID: "CLM-2", PatientName: patient, ServiceDate: "2024-03-01", ServiceTime: "09:10", Department: "Orthopedics",
			Latitude: coord(40.7357), Longitude: coord(-74.1724), ProcedureCode: "23650",
			ProcedureDescription: "Shoulder dislocation, closed treatment", BilledAmount: 700,
			ClinicalNotes: "Closed reduction of anterior shoulder dislocation under sedation."},
		{ClaimID: "CLM-3", PatientName: patient, ServiceDate: "2024-03-01", ServiceTime: "11:00", Department: "Orthopedics",
			Latitude: coord(40.7357), Longitude: coord(-74.1724), ProcedureCode: "29240",
			ProcedureDescription: "Shoulder strapping", BilledAmount: 90},
		{ClaimID: "CLM-4", PatientName: patient, ServiceDate: "2024-03-01", ServiceTime: "13:30", Department: "Radiology",
			ProcedureCode: "70553", ProcedureDescription: "MRI brain", BilledAmount: 2400,
			ClinicalNotes: "No record of MRI being performed."},
		{ClaimID: "CLM-5", PatientName: patient, ServiceDate: "2024-03-01", ServiceTime: "14:00", Department: "Radiology",
			ProcedureCode: "73610", ProcedureDescription: "Ankle x-ray", BilledAmount: 85},
	}
}
