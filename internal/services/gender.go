package services

import "strings"

// Gender is the normalized matching signal. Classification is total: every
// input maps to a value, so the matchmaker tiers never branch on raw
// profile strings.
type Gender int

const (
	GenderUnspecified Gender = iota
	GenderMale
	GenderFemale
	GenderOther
)

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	case GenderOther:
		return "other"
	default:
		return "unspecified"
	}
}

var genderSynonyms = map[string]Gender{
	"m":      GenderMale,
	"male":   GenderMale,
	"man":    GenderMale,
	"boy":    GenderMale,
	"guy":    GenderMale,
	"f":      GenderFemale,
	"female": GenderFemale,
	"woman":  GenderFemale,
	"girl":   GenderFemale,
	"lady":   GenderFemale,
}

// ClassifyGender maps a free-form profile string onto the matching enum.
// Empty input is Unspecified; any non-empty value outside the synonym
// table is Other.
func ClassifyGender(raw string) Gender {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return GenderUnspecified
	}
	if g, ok := genderSynonyms[s]; ok {
		return g
	}
	return GenderOther
}

// Complementary reports whether two classified genders form the
// male/female pairing tier 1 looks for.
func Complementary(a, b Gender) bool {
	return (a == GenderMale && b == GenderFemale) || (a == GenderFemale && b == GenderMale)
}
