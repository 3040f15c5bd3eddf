package claimsio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// ParquetReader streams ClaimRow records from a Parquet file.
type ParquetReader struct {
	file   *os.File
	reader *parquet.GenericReader[model.ClaimRow]
}

// OpenParquet opens a Parquet claims file.
func OpenParquet(path string) (*ParquetReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if err := ValidateSchema(pf.Schema()); err != nil {
		f.Close()
		return nil, err
	}

	r := parquet.NewGenericReader[model.ClaimRow](pf)
	return &ParquetReader{file: f, reader: r}, nil
}

// NumRows returns the row count from the file metadata.
func (r *ParquetReader) NumRows() int64 {
	return r.reader.NumRows()
}

// Read reads up to len(rows) records. Returns io.EOF when done.
func (r *ParquetReader) Read(rows []model.ClaimRow) (int, error) {
	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read parquet rows: %w", err)
	}
	return n, err
}

// Close releases all resources.
func (r *ParquetReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// ValidateSchema checks that the file carries every required claim column.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}
	var missing []string
	for _, col := range model.RequiredClaimColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func readParquet(path string) ([]model.ClaimLineItem, error) {
	r, err := OpenParquet(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	claims := make([]model.ClaimLineItem, 0, r.NumRows())
	buf := make([]model.ClaimRow, 256)
	for {
		n, readErr := r.Read(buf)
		for i := 0; i < n; i++ {
			claims = append(claims, normalize.ToClaim(&buf[i]))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}
	return claims, nil
}

// WriteParquet writes a batch in the ClaimRow schema.
func WriteParquet(path string, claims []model.ClaimLineItem) error {
	rows := make([]model.ClaimRow, len(claims))
	for i, c := range claims {
		rows[i] = model.FromClaim(c)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet file: %w", err)
	}
	return nil
}
