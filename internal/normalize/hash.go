package normalize

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gyeh/claimaudit/internal/model"
)

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// RowHashFromValues computes a SHA-256 from ordered values for a simpler calling convention.
func RowHashFromValues(rowNum int64, values ...string) []byte {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(rowNum))
	h.Write(buf)
	for _, v := range values {
		h.Write([]byte(strings.TrimSpace(v)))
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}

// BatchFingerprint is a stable digest over every claim field, in batch order.
// Two runs over the same input always yield the same fingerprint.
func BatchFingerprint(claims []model.ClaimLineItem) string {
	h := sha256.New()
	for i, c := range claims {
		h.Write(RowHashFromValues(int64(i),
			c.ClaimID,
			c.PatientName,
			c.ServiceDate,
			c.ServiceTime,
			c.Department,
			optFloat(c.Latitude),
			optFloat(c.Longitude),
			c.ProcedureCode,
			c.ProcedureDescription,
			strconv.FormatFloat(c.BilledAmount, 'f', 2, 64),
			c.ClinicalNotes,
		))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func optFloat(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
