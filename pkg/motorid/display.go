package motorid

import "regexp"

var reHPThenRigging = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)(` + alternation(DisplayCodes()) + `)\b`)

// FormatDisplay re-spaces and re-cases a model string for presentation:
// "8mh FourStroke" becomes "8 MH FourStroke". Only whitespace and the case
// of rigging tokens change.
func FormatDisplay(model string) string {
	s := reHPThenRigging.ReplaceAllString(model, "$1 $2")
	s = reDisplayRigging.ReplaceAllStringFunc(s, canonicalCode)
	return collapseSpaces(s)
}
