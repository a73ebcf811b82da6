package motorid

import (
	"regexp"
	"strings"
)

var (
	reFallbackStrip  = regexp.MustCompile(`[^A-Z0-9\s-]`)
	reMultiDash      = regexp.MustCompile(`-{2,}`)
	reFallbackSpaces = regexp.MustCompile(`\s+`)
)

// BuildKey derives the canonical model key used to join and deduplicate
// catalog records, e.g. "FOURSTROKE-9.9HP-EFI-ELH".
//
// When nothing structured can be extracted the key is a sanitized form of
// the raw input. BuildKey never panics; unusable input yields "".
func BuildKey(raw string) string {
	if raw == "" {
		return ""
	}
	return keyFrom(raw, Parse(raw))
}

// KeyOf assembles the key for an already parsed model. raw is only used by
// the fallback path.
func KeyOf(raw string, pm ParsedModel) string {
	if raw == "" && pm.LowConfidence() {
		return ""
	}
	return keyFrom(raw, pm)
}

func keyFrom(raw string, pm ParsedModel) string {
	if pm.LowConfidence() {
		return fallbackKey(raw)
	}

	var parts []string
	if pm.Family != FamilyUnknown && pm.Family != "" {
		parts = append(parts, strings.ToUpper(string(pm.Family)))
	}
	if hp := pm.HorsepowerString(); hp != "" {
		parts = append(parts, hp+"HP")
	}
	if pm.Fuel == FuelEFI {
		parts = append(parts, string(FuelEFI))
	}
	if code := pm.RiggingCode(); code != "" {
		parts = append(parts, code)
	}
	return strings.Join(parts, "-")
}

func fallbackKey(raw string) string {
	s := strings.ToUpper(raw)
	s = reYear.ReplaceAllString(s, " ")
	s = reFallbackStrip.ReplaceAllString(s, " ")
	s = reFallbackSpaces.ReplaceAllString(s, "-")
	s = reMultiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slug is the lowercase, dash-preserving form of a key used in share links.
func Slug(key string) string {
	return strings.ToLower(key)
}

// KeyFromSlug maps a share-link slug back to its key.
func KeyFromSlug(slug string) string {
	return strings.ToUpper(strings.TrimSpace(slug))
}
