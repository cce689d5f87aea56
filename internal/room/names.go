package room

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultName substitutes for names that sanitize down to nothing
const DefaultName = "Player"

const maxNameLength = 20

var (
	urlPattern   = regexp.MustCompile(`(?i)https?://\S+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeName normalizes a client-supplied display name: URLs stripped,
// whitespace collapsed, charset restricted to letters, digits, space and
// ._-, length capped. Anything left empty becomes DefaultName.
func SanitizeName(raw string) string {
	name := urlPattern.ReplaceAllString(raw, "")
	name = spacePattern.ReplaceAllString(name, " ")

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	name = strings.TrimSpace(b.String())
	if name == "" {
		return DefaultName
	}

	runes := []rune(name)
	if len(runes) > maxNameLength {
		runes = runes[:maxNameLength]
	}
	return strings.TrimSpace(string(runes))
}
