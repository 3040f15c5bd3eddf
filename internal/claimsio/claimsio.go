// Package claimsio loads normalized claim batches from JSON or Parquet files
// and writes them back out for fixtures.
package claimsio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// Supported file formats.
const (
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

var (
	ErrUnknownFormat = errors.New("unknown claims file format")
	ErrMissingID     = errors.New("claim without claim_id")
	ErrDuplicateID   = errors.New("duplicate claim_id")
)

// FormatOf infers the format from the file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads a claims file, coerces its values and checks claim IDs.
func Load(path string) ([]model.ClaimLineItem, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	var claims []model.ClaimLineItem
	switch format {
	case FormatParquet:
		claims, err = readParquet(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open claims file: %w", err)
		}
		defer f.Close()
		claims, err = ReadJSON(f)
	}
	if err != nil {
		return nil, err
	}
	if err := CheckIDs(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ReadJSON decodes either a JSON array of claims or an object with a
// "claims" array.
func ReadJSON(r io.Reader) ([]model.ClaimLineItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read claims json: %w", err)
	}

	var claims []model.ClaimLineItem
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapper struct {
			Claims []model.ClaimLineItem `json:"claims"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("parse claims json: %w", err)
		}
		claims = wrapper.Claims
	} else if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("parse claims json: %w", err)
	}

	for i := range claims {
		claims[i] = normalize.Claim(claims[i])
	}
	return claims, nil
}

// WriteJSON encodes a batch as an indented JSON array.
func WriteJSON(w io.Writer, claims []model.ClaimLineItem) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(claims); err != nil {
		return fmt.Errorf("encode claims json: %w", err)
	}
	return nil
}

// CheckIDs rejects batches with empty or repeated claim IDs, since every
// finding refers back to claims by ID.
func CheckIDs(claims []model.ClaimLineItem) error {
	seen := make(map[string]int, len(claims))
	for i, c := range claims {
		id := strings.TrimSpace(c.ClaimID)
		if id == "" {
			return fmt.Errorf("row %d: %w", i+1, ErrMissingID)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("rows %d and %d: %w %q", prev+1, i+1, ErrDuplicateID, id)
		}
		seen[id] = i
	}
	return nil
}
