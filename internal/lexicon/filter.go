package lexicon

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Result is the outcome of filtering one recognizer output.
type Result struct {
	// Text is the valid tokens joined by single spaces, in input order.
	Text string `json:"text"`
	// Valid holds the stripped tokens that passed validation.
	Valid []string `json:"valid"`
	// Count is len(Valid).
	Count int `json:"count"`
	// Total is the number of whitespace-separated tokens in the raw input.
	Total int `json:"total"`
}

// Filter splits raw on whitespace, strips each token of leading and trailing
// non-alphanumeric runes and keeps the tokens that dict recognizes or that
// contain a decimal digit. Tokens are never reordered or invented.
func Filter(raw string, dict Dictionary) Result {
	fields := strings.Fields(raw)
	valid := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := Strip(f)
		if tok == "" {
			continue
		}
		if IsValid(tok, dict) {
			valid = append(valid, tok)
		}
	}
	return Result{
		Text:  strings.Join(valid, " "),
		Valid: valid,
		Count: len(valid),
		Total: len(fields),
	}
}

// Strip normalizes token to NFC and trims leading and trailing runes that are
// neither letters nor digits. Combining marks left after composition stay
// attached to the rune before them.
func Strip(token string) string {
	s := strings.TrimLeftFunc(norm.NFC.String(token), isPunct)

	end := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case !isPunct(r):
			end = i + size
		case unicode.Is(unicode.Mn, r) && end == i:
			end = i + size
		}
		i += size
	}
	return s[:end]
}

func isPunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// IsValid reports whether a stripped token is a dictionary word or carries a
// decimal digit (numbers, dates, codes).
func IsValid(token string, dict Dictionary) bool {
	if token == "" {
		return false
	}
	if hasDigit(token) {
		return true
	}
	return dict != nil && dict.Contains(token)
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
