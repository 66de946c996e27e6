package docid

import (
	"strings"
	"sync"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// CountryCode is a two-letter WIPO ST.3 office code.
type CountryCode string

// Unknown is returned when a code cannot be resolved to exactly one current
// office.
const Unknown CountryCode = "UNKNOWN"

// Offices used often enough to deserve names.
const (
	US CountryCode = "US"
	WO CountryCode = "WO"
	EP CountryCode = "EP"
	JP CountryCode = "JP"
	DE CountryCode = "DE"
	GB CountryCode = "GB"
	CN CountryCode = "CN"
)

func (c CountryCode) String() string { return string(c) }

// IsCurrent reports whether c is an ISO 3166 country or a regional office
// code in use today.
func (c CountryCode) IsCurrent() bool {
	_, ok := currentCodes()[string(c)]
	return ok
}

// iso3166 lists every assigned ISO 3166-1 alpha-2 code.
const iso3166 = `AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ BA BB BD BE BF BG BH BI BJ
BL BM BN BO BQ BR BS BT BV BW BY BZ CA CC CD CF CG CH CI CK CL CM CN CO CR CU CV CW CX CY CZ
DE DJ DK DM DO DZ EC EE EG EH ER ES ET FI FJ FK FM FO FR GA GB GD GE GF GG GH GI GL GM GN GP
GQ GR GS GT GU GW GY HK HM HN HR HT HU ID IE IL IM IN IO IQ IR IS IT JE JM JO JP KE KG KH KI
KM KN KP KR KW KY KZ LA LB LC LI LK LR LS LT LU LV LY MA MC MD ME MF MG MH MK ML MM MN MO MP
MQ MR MS MT MU MV MW MX MY MZ NA NC NE NF NG NI NL NO NP NR NU NZ OM PA PE PF PG PH PK PL PM
PN PR PS PT PW PY QA RE RO RS RU RW SA SB SC SD SE SG SH SI SJ SK SL SM SN SO SR SS ST SV SX
SY SZ TC TD TF TG TH TJ TK TL TM TN TO TR TT TV TW TZ UA UG UM US UY UZ VA VC VE VG VI VN VU
WF WS YE YT ZA ZM ZW`

// regionalOffices are ST.3 codes of intergovernmental offices.
const regionalOffices = `AP EA EM EP GC IB OA QZ WO XN XU XV`

var (
	currentOnce sync.Once
	current     map[string]struct{}
)

func currentCodes() map[string]struct{} {
	currentOnce.Do(func() {
		current = make(map[string]struct{}, 270)
		for _, c := range strings.Fields(iso3166 + " " + regionalOffices) {
			current[c] = struct{}{}
		}
	})
	return current
}

// historicalCode describes a retired office code.  ValidFrom and ValidTo bound
// the publication years (inclusive) in which the code carried the retired
// meaning; zero means unbounded.
type historicalCode struct {
	Current   []CountryCode
	ValidFrom int
	ValidTo   int
}

func (h historicalCode) covers(year int) bool {
	if year == 0 {
		return true
	}
	if h.ValidFrom != 0 && year < h.ValidFrom {
		return false
	}
	if h.ValidTo != 0 && year > h.ValidTo {
		return false
	}
	return true
}

// history maps codes retired before 1978, and a few retired later, to their
// successors.  Entries with several successors are ambiguous by nature.
var history = map[string]historicalCode{
	"BH": {Current: []CountryCode{"BT"}, ValidTo: 1977}, // Bhutan; BH is Bahrain today
	"DT": {Current: []CountryCode{"DE"}, ValidTo: 1977},
	"OE": {Current: []CountryCode{"AT"}, ValidTo: 1977},
	"SF": {Current: []CountryCode{"FI"}, ValidTo: 1977},
	"JA": {Current: []CountryCode{"JP"}, ValidTo: 1977},
	"DY": {Current: []CountryCode{"BJ"}, ValidTo: 1977},
	"RH": {Current: []CountryCode{"ZW"}, ValidTo: 1979},
	"VD": {Current: []CountryCode{"VN"}, ValidTo: 1976},
	"NH": {Current: []CountryCode{"VU"}, ValidTo: 1980},
	"HV": {Current: []CountryCode{"BF"}, ValidTo: 1984},
	"BU": {Current: []CountryCode{"MM"}, ValidTo: 1989},
	"DD": {Current: []CountryCode{"DE"}, ValidTo: 1990},
	"YD": {Current: []CountryCode{"YE"}, ValidTo: 1990},
	"SU": {Current: []CountryCode{"RU"}, ValidTo: 1991},
	"ZR": {Current: []CountryCode{"CD"}, ValidTo: 1997},
	"TP": {Current: []CountryCode{"TL"}, ValidTo: 2002},
	"UK": {Current: []CountryCode{"GB"}},
	"CS": {Current: []CountryCode{"CZ", "SK"}, ValidTo: 1992},
	"YU": {Current: []CountryCode{"RS", "ME", "HR", "SI", "BA", "MK"}, ValidTo: 2003},
	"AN": {Current: []CountryCode{"CW", "SX", "BQ"}, ValidTo: 2010},
}

// CountryResolver maps raw office codes, including retired ones, to current
// codes.  It holds no mutable state and is safe for concurrent use.
type CountryResolver struct {
	logger logging.Logger
}

// NewCountryResolver returns a resolver that reports ambiguous codes to
// logger.
func NewCountryResolver(logger logging.Logger) *CountryResolver {
	return &CountryResolver{logger: logger}
}

// Resolve maps code for the given publication year (0 when unknown).
//
// A code in use today resolves to itself unless the history table declares a
// retired meaning covering year.  A retired code with several successors is
// logged and resolves to Unknown with a nil error.  Codes found in neither
// table yield Unknown and an error.
func (r *CountryResolver) Resolve(code string, year int) (CountryCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return Unknown, errors.Newf(errors.ErrCodeCountryCodeUnknown, "country code %q is not two letters", code)
	}

	h, retired := history[code]
	isCurrent := CountryCode(code).IsCurrent()

	useHistory := retired && ((year != 0 && h.covers(year)) || (year == 0 && !isCurrent))
	if !useHistory {
		if isCurrent {
			return CountryCode(code), nil
		}
		if retired {
			return Unknown, errors.Newf(errors.ErrCodeCountryCodeUnknown, "country code %q retired, year %d outside range", code, year)
		}
		return Unknown, errors.Newf(errors.ErrCodeCountryCodeUnknown, "country code %q unknown", code)
	}

	if len(h.Current) != 1 {
		logging.OrDefault(r.logger).Warn("ambiguous historical country code",
			logging.String("code", code),
			logging.Int("year", year),
			logging.Any("candidates", h.Current))
		return Unknown, nil
	}
	return h.Current[0], nil
}

var defaultResolver = &CountryResolver{}

// ResolveCountry resolves code with the process default logger.
func ResolveCountry(code string, year int) (CountryCode, error) {
	return defaultResolver.Resolve(code, year)
}

//Personal.AI order the ending
