package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText removes all HTML from s. The policy escapes what it keeps, so the
// result is unescaped again to store plain text such as "we've".
func SanitizeText(s string) string {
	return html.UnescapeString(strictHTMLPolicy.Sanitize(s))
}

// StripUnprintable drops non-printable runes, keeping tab, newline and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// CleanComment is the normalisation applied to free-text unit commentary.
func CleanComment(s string) string {
	return strings.TrimSpace(StripUnprintable(SanitizeText(s)))
}
