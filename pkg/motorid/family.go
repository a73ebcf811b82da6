package motorid

import (
	"regexp"
	"strings"
)

// MotorFamily is the marketing taxonomy used for catalog filtering and
// badges. Unlike Family it knows ProKicker and has no Racing.
type MotorFamily string

const (
	MotorFamilyVerado     MotorFamily = "Verado"
	MotorFamilyProXS      MotorFamily = "Pro XS"
	MotorFamilyFourStroke MotorFamily = "FourStroke"
	MotorFamilyProKicker  MotorFamily = "ProKicker"
	MotorFamilySeaPro     MotorFamily = "SeaPro"
)

// MotorFamilies lists every marketing family.
var MotorFamilies = []MotorFamily{
	MotorFamilyVerado,
	MotorFamilyProXS,
	MotorFamilyFourStroke,
	MotorFamilyProKicker,
	MotorFamilySeaPro,
}

// veradoMinHP gates the engine-marker branch of the Verado rule.
const veradoMinHP = 200

var veradoMarkers = []string{"v6", "v8", "v10", "supercharged"}

var (
	reProKicker = regexp.MustCompile(`\bpro[\s-]*kicker\b`)
	reProXS     = regexp.MustCompile(`\bpro[\s-]*xs\b`)
	reSeaPro    = regexp.MustCompile(`\bsea[\s-]*pro\b`)
)

// ClassifyFamily assigns a marketing family. Rules are evaluated in order
// and the first match wins:
//
//  1. ProKicker
//  2. Pro XS
//  3. SeaPro
//  4. Verado, by name or by hp >= 200 with a V6/V8/V10/supercharged marker
//  5. FourStroke
func ClassifyFamily(hp float64, modelDisplay string, features ...string) MotorFamily {
	text := strings.ToLower(modelDisplay + " " + strings.Join(features, " "))

	switch {
	case reProKicker.MatchString(text):
		return MotorFamilyProKicker
	case reProXS.MatchString(text):
		return MotorFamilyProXS
	case reSeaPro.MatchString(text):
		return MotorFamilySeaPro
	case strings.Contains(text, "verado"):
		return MotorFamilyVerado
	case hp >= veradoMinHP && containsAny(text, veradoMarkers):
		return MotorFamilyVerado
	default:
		return MotorFamilyFourStroke
	}
}

// ParseMotorFamily maps user input such as "pro-xs" or "verado" to a
// MotorFamily.
func ParseMotorFamily(s string) (MotorFamily, bool) {
	want := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, f := range MotorFamilies {
		have := strings.ReplaceAll(strings.ToLower(string(f)), " ", "")
		if have == want {
			return f, true
		}
	}
	return "", false
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
