package noproto

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// upperCaser/lowerCaser enforce TypeKind.String/Char's Casing constraint
// with Unicode-aware case folding rather than strings.ToUpper/ToLower,
// per SPEC_FULL.md §2's domain-stack wiring for golang.org/x/text/cases.
var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// enforceCasing normalizes s to match c, returning s unchanged for
// CasingNone.
func enforceCasing(c Casing, s string) string {
	switch c {
	case CasingUpper:
		return upperCaser.String(s)
	case CasingLower:
		return lowerCaser.String(s)
	default:
		return s
	}
}
