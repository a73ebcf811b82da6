// Package motorid derives a canonical identity from free-form Mercury
// outboard model descriptions.
//
// Everything here is pure: no I/O, no shared mutable state. The compiled
// patterns are package-level and read-only, so every function is safe to
// call from any number of goroutines.
package motorid

import (
	"regexp"
	"sort"
	"strings"
)

// riggingCode is one entry of the rigging vocabulary.
// keyed codes are extracted into ParsedModel; display codes are spaced and
// uppercased by FormatDisplay.
type riggingCode struct {
	code    string
	keyed   bool
	display bool
}

var riggingVocabulary = []riggingCode{
	{code: "ELHPT", keyed: true, display: true},
	{code: "EXLPT", keyed: true, display: true},
	{code: "ELPT", keyed: true, display: true},
	{code: "ELO", keyed: true},
	{code: "ELH", keyed: true, display: true},
	{code: "EH", keyed: true, display: true},
	{code: "XXL", keyed: true, display: true},
	{code: "XL", keyed: true, display: true},
	{code: "L", keyed: true, display: true},
	{code: "CL", keyed: true, display: true},
	{code: "CT", keyed: true, display: true},
	{code: "DTS", keyed: true, display: true},
	{code: "TILLER", keyed: true},
	{code: "JPO", keyed: true, display: true},
	{code: "DIGITAL", keyed: true},
	{code: "POWER STEERING", keyed: true},
	{code: "MXXL", display: true},
	{code: "MXLH", display: true},
	{code: "MXL", display: true},
	{code: "MLH", display: true},
	{code: "MH", display: true},
	{code: "M", display: true},
}

// RiggingCodes returns the extraction vocabulary in table order.
func RiggingCodes() []string {
	out := make([]string, 0, len(riggingVocabulary))
	for _, rc := range riggingVocabulary {
		if rc.keyed {
			out = append(out, rc.code)
		}
	}
	return out
}

// DisplayCodes returns the display vocabulary in table order.
func DisplayCodes() []string {
	out := make([]string, 0, len(riggingVocabulary))
	for _, rc := range riggingVocabulary {
		if rc.display {
			out = append(out, rc.code)
		}
	}
	return out
}

// alternation builds a regex alternation with the longest codes first so a
// single left-to-right pass never prefers "L" over "ELHPT".
// Spaces inside a code match any whitespace run.
func alternation(codes []string) string {
	sorted := append([]string(nil), codes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		words := strings.Fields(c)
		for k, w := range words {
			words[k] = regexp.QuoteMeta(w)
		}
		parts[i] = strings.Join(words, `\s+`)
	}
	return strings.Join(parts, "|")
}

var (
	reKeyedRigging   = regexp.MustCompile(`(?i)\b(?:` + alternation(RiggingCodes()) + `)\b`)
	reDisplayRigging = regexp.MustCompile(`(?i)\b(?:` + alternation(DisplayCodes()) + `)\b`)
	reWhitespace     = regexp.MustCompile(`\s+`)
)

// canonicalCode uppercases a matched rigging token and folds inner
// whitespace to a single space.
func canonicalCode(match string) string {
	return strings.Join(strings.Fields(strings.ToUpper(match)), " ")
}
