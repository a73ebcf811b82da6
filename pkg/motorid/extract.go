package motorid

import (
	"regexp"
	"strconv"
	"strings"
)

// Family is the coarse product line token found in a description.
// It is not the marketing taxonomy; see MotorFamily.
type Family string

const (
	FamilyFourStroke Family = "FourStroke"
	FamilyProXS      Family = "ProXS"
	FamilySeaPro     Family = "SeaPro"
	FamilyVerado     Family = "Verado"
	FamilyRacing     Family = "Racing"
	FamilyUnknown    Family = "Unknown"
)

// Fuel is the fuel-system indicator.
type Fuel string

const (
	FuelEFI     Fuel = "EFI"
	FuelUnknown Fuel = "Unknown"
)

// ParsedModel is the structured identity extracted from one description.
type ParsedModel struct {
	Family     Family   `json:"family"`
	Horsepower *float64 `json:"horsepower,omitempty"`
	Fuel       Fuel     `json:"fuel"`
	Rigging    []string `json:"rigging,omitempty"`
}

// RiggingCode joins the rigging tokens with "-", the form used in keys.
func (p ParsedModel) RiggingCode() string {
	parts := make([]string, len(p.Rigging))
	for i, code := range p.Rigging {
		parts[i] = strings.ReplaceAll(code, " ", "-")
	}
	return strings.Join(parts, "-")
}

// HorsepowerString renders horsepower without a trailing ".0"
// (25 -> "25", 9.9 -> "9.9"). Empty when unknown.
func (p ParsedModel) HorsepowerString() string {
	if p.Horsepower == nil {
		return ""
	}
	return strconv.FormatFloat(*p.Horsepower, 'f', -1, 64)
}

// LowConfidence reports that nothing structured was extracted. Callers use
// it instead of an error to detect unparseable descriptions.
func (p ParsedModel) LowConfidence() bool {
	noFamily := p.Family == FamilyUnknown || p.Family == ""
	return noFamily && p.Horsepower == nil && p.Fuel != FuelEFI && len(p.Rigging) == 0
}

var (
	// The number must not start inside another number, so "9.95 hp" is
	// read whole and "1.2.5 hp" not at all.
	reHorsepower = regexp.MustCompile(`(?i)(?:^|[^\d.])(\d+(?:\.\d+)?)\s*hp\b`)
	// "150 Pro XS XL": a leading number directly followed by a family name.
	reBareHorsepower = regexp.MustCompile(`^(\d{1,3}(?:\.\d)?)\s+(?:FourStroke|ProXS|SeaPro|Verado|Racing)\b`)
	reFamily         = regexp.MustCompile(`(?i)\b(FourStroke|ProXS|SeaPro|Verado|Racing)\b`)
	reEFI            = regexp.MustCompile(`(?i)\bEFI\b`)
)

// efiFamilies are product lines sold only with electronic fuel injection.
// Descriptions for them often omit the EFI token, and existing catalog keys
// carry it regardless.
var efiFamilies = map[Family]bool{
	FamilyProXS:  true,
	FamilySeaPro: true,
	FamilyVerado: true,
}

var familyByLower = map[string]Family{
	"fourstroke": FamilyFourStroke,
	"proxs":      FamilyProXS,
	"seapro":     FamilySeaPro,
	"verado":     FamilyVerado,
	"racing":     FamilyRacing,
}

// Parse normalizes raw and extracts its attributes.
func Parse(raw string) ParsedModel {
	return Extract(Normalize(raw))
}

// Extract reads family, horsepower, fuel and rigging code from a normalized
// description. Horsepower is removed from the working text before the
// rigging scan so its digits and suffix cannot leak into other attributes.
func Extract(normalized string) ParsedModel {
	pm := ParsedModel{Family: FamilyUnknown, Fuel: FuelUnknown}
	work := normalized

	if hp, rest, ok := takeHorsepower(work); ok {
		pm.Horsepower = &hp
		work = rest
	}

	seen := make(map[string]bool)
	for _, m := range reKeyedRigging.FindAllString(work, -1) {
		code := canonicalCode(m)
		if seen[code] {
			continue
		}
		seen[code] = true
		pm.Rigging = append(pm.Rigging, code)
	}

	if m := reFamily.FindString(work); m != "" {
		if f, ok := familyByLower[strings.ToLower(m)]; ok {
			pm.Family = f
		}
	}

	if reEFI.MatchString(work) || efiFamilies[pm.Family] {
		pm.Fuel = FuelEFI
	}

	return pm
}

func takeHorsepower(s string) (float64, string, bool) {
	for _, re := range []*regexp.Regexp{reHorsepower, reBareHorsepower} {
		loc := re.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		hp, err := strconv.ParseFloat(s[loc[2]:loc[3]], 64)
		if err != nil || hp <= 0 {
			continue
		}
		// reHorsepower drops "150 HP"; the bare form only the number.
		start, end := loc[2], loc[1]
		if re == reBareHorsepower {
			end = loc[3]
		}
		return hp, s[:start] + " " + s[end:], true
	}
	return 0, s, false
}
