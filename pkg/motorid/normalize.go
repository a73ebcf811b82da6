package motorid

import (
	"regexp"
	"strings"
)

var (
	reTags     = regexp.MustCompile(`<[^>]*?>`)
	reBrackets = regexp.MustCompile(`[()]`)
	reYear     = regexp.MustCompile(`\b20\d{2}\b`)
)

// familySpellings rewrites spelling variants to the canonical compound
// form. Order matters only for readability; the patterns do not overlap.
var familySpellings = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bfour[\s-]*stroke\b`), "FourStroke"},
	{regexp.MustCompile(`(?i)\bpro[\s-]*xs\b`), "ProXS"},
	{regexp.MustCompile(`(?i)\bsea[\s-]*pro\b`), "SeaPro"},
	{regexp.MustCompile(`(?i)\bverado\b`), "Verado"},
	{regexp.MustCompile(`(?i)\bracing\b`), "Racing"},
	{regexp.MustCompile(`(?i)\befi\b`), "EFI"},
}

// Normalize performs lexical cleanup of a raw description: markup, brackets
// and model years are dropped, family spellings are canonicalized and
// rigging tokens uppercased. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := reTags.ReplaceAllString(raw, " ")
	s = reBrackets.ReplaceAllString(s, "")
	s = reYear.ReplaceAllString(s, " ")
	s = collapseSpaces(s)

	for _, fs := range familySpellings {
		s = fs.re.ReplaceAllString(s, fs.repl)
	}
	s = reKeyedRigging.ReplaceAllStringFunc(s, canonicalCode)

	return collapseSpaces(s)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}
