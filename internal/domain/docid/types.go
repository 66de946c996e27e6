package docid

import "strings"

// IDType records where in a document an identifier was found.
type IDType string

const (
	TypeUnknown             IDType = "unknown"
	TypePublished           IDType = "published"
	TypeApplication         IDType = "application"
	TypePriority            IDType = "priority"
	TypeNationalFiling      IDType = "national_filing"
	TypeRegionalFiling      IDType = "regional_filing"
	TypeInternationalFiling IDType = "international_filing"
	TypeContinuation        IDType = "continuation"
	TypeContinuationInPart  IDType = "continuation_in_part"
	TypeDivision            IDType = "division"
	TypeReissue             IDType = "reissue"
	TypeProvisional         IDType = "provisional"
	TypeRelatedPublication  IDType = "related_publication"
	TypeCitation            IDType = "citation"
)

// IsFiling reports whether t names an application-side identifier, the kind
// whose embedded two-digit year may be expanded.
func (t IDType) IsFiling() bool {
	switch t {
	case TypeApplication, TypePriority, TypeNationalFiling, TypeRegionalFiling,
		TypeInternationalFiling, TypeContinuation, TypeContinuationInPart,
		TypeDivision, TypeProvisional:
		return true
	}
	return false
}

// PatentType is the legal category implied by a number prefix or kind code.
type PatentType string

const (
	PatentUnknown               PatentType = "unknown"
	PatentUtility               PatentType = "utility"
	PatentDesign                PatentType = "design"
	PatentPlant                 PatentType = "plant"
	PatentReissue               PatentType = "reissue"
	PatentSIR                   PatentType = "statutory_invention_registration"
	PatentDefensivePublication  PatentType = "defensive_publication"
	PatentXPatent               PatentType = "x_patent"
	PatentAdditionalImprovement PatentType = "additional_improvement"
	PatentReexamination         PatentType = "reexamination"
)

// numberPrefixes are the reserved alphabetic prefixes of US document numbers,
// longest first so that "PP" wins over "P" style collisions.
var numberPrefixes = []struct {
	Prefix string
	Type   PatentType
}{
	{"PLT", PatentPlant},
	{"RE", PatentReissue},
	{"RX", PatentReexamination},
	{"PP", PatentPlant},
	{"AI", PatentAdditionalImprovement},
	{"D", PatentDesign},
	{"H", PatentSIR},
	{"T", PatentDefensivePublication},
	{"X", PatentXPatent},
}

// SplitPrefix returns the reserved alphabetic prefix of number, if any, and
// the remainder.
func SplitPrefix(number string) (prefix, rest string) {
	upper := strings.ToUpper(number)
	for _, p := range numberPrefixes {
		if strings.HasPrefix(upper, p.Prefix) && len(upper) > len(p.Prefix) && isDigit(upper[len(p.Prefix)]) {
			return p.Prefix, number[len(p.Prefix):]
		}
	}
	return "", number
}

func prefixType(prefix string) PatentType {
	for _, p := range numberPrefixes {
		if p.Prefix == prefix {
			return p.Type
		}
	}
	return PatentUnknown
}

// KindInfo describes a USPTO kind code.
type KindInfo struct {
	Type  PatentType
	Grant bool
}

// usKindCodes covers the WIPO ST.16 kind codes used by the USPTO since 2001
// and the single-letter codes used before.
var usKindCodes = map[string]KindInfo{
	"A":  {PatentUtility, true},
	"A1": {PatentUtility, false},
	"A2": {PatentUtility, false},
	"A9": {PatentUtility, false},
	"B1": {PatentUtility, true},
	"B2": {PatentUtility, true},
	"C1": {PatentReexamination, true},
	"C2": {PatentReexamination, true},
	"C3": {PatentReexamination, true},
	"E":  {PatentReissue, true},
	"E1": {PatentReissue, true},
	"H":  {PatentSIR, true},
	"H1": {PatentSIR, true},
	"I4": {PatentXPatent, true},
	"I5": {PatentAdditionalImprovement, true},
	"P":  {PatentPlant, true},
	"P1": {PatentPlant, false},
	"P2": {PatentPlant, true},
	"P3": {PatentPlant, true},
	"P4": {PatentPlant, false},
	"P9": {PatentPlant, false},
	"S":  {PatentDesign, true},
	"S1": {PatentDesign, true},
	"T":  {PatentDefensivePublication, true},
}

// LookupKind returns the meaning of a US kind code.
func LookupKind(kind string) (KindInfo, bool) {
	info, ok := usKindCodes[strings.ToUpper(strings.TrimSpace(kind))]
	return info, ok
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

//Personal.AI order the ending
