package normalize

import "strings"

// ContainsPhrase reports whether phrase occurs in text on word boundaries.
// Both sides are expected to be normalized with Text already, so
// "stable" does not match inside "unstable".
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	from := 0
	for {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		from = start + 1
	}
}

// MatchPhrases returns the phrases found in text, in the order given.
func MatchPhrases(text string, phrases []string) []string {
	var out []string
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			out = append(out, p)
		}
	}
	return out
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c >= 'A' && c <= 'Z')
}
