package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// Text lowercases, collapses whitespace, and trims the input. It is applied
// to clinical notes and procedure descriptions before keyword matching.
func Text(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	return multiSpace.ReplaceAllString(strings.ToLower(s), " ")
}

var wordSplit = regexp.MustCompile(`[^a-z0-9\-]+`)

// Words splits normalized text into lowercase word tokens.
func Words(v string) []string {
	var out []string
	for _, w := range wordSplit.Split(Text(v), -1) {
		w = strings.Trim(w, "-")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
