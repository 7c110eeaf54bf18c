// Package sanitise normalises CSO dimension and category labels so that
// tables published under different naming conventions line up.
package sanitise

import (
	"regexp"
	"strings"
)

// Mapping lists label spellings (after punctuation and whitespace
// normalisation) and their preferred form.
var Mapping = map[string]string{
	"Administrative Counties and Local Government Districts": "Administrative County and Local Government District",
	"Admin Counties":               "Administrative County",
	"Admin County":                 "Administrative County",
	"Administrative Counties":      "Administrative County",
	"Adminstrative Counties":       "Administrative County",
	"Administrative Counties 2019": "Administrative County 2019",
	"Catchement":                   "Catchment Area",
	"Catchment":                    "Catchment Area",
	"CensusYear":                   "Census Year",
	"Census year":                  "Census Year",
	"Counties":                     "County",
	"Counties and Cities":          "County and City",
	"County and Cities":            "County and City",
	"Counties and HSE Regions":     "County and HSE Region",
	"Countries":                    "Country",
	"Electoral Divisions":          "Electoral Division",
	"HalfYear":                     "Half Year",
	"Licencing Authority":          "Licensing Authority",
	"Local Electoral Areas":        "Local Electoral Area",
	"Martial Status of Mother":     "Marital Status of Mother",
	"NUTS 2 Regions":               "NUTS 2 Region",
	"NUTS 3":                       "NUTS 3 Region",
	"NUTS 3 region":                "NUTS 3 Region",
	"NUTS 3 Regions":               "NUTS 3 Region",
	"NUTS3 Regions":                "NUTS 3 Region",
	"NUTS3 regions":                "NUTS 3 Region",
	"Nuts 2 Region":                "NUTS 2 Region",
	"Principle Countries":          "Principal Countries",
	"Principle Economic Status":    "Principal Economic Status",
	"Provinces":                    "Province",
	"Settlements":                  "Settlement",
	"Small Areas":                  "Small Area",
}

var (
	slashSpacing = regexp.MustCompile(`\s*/\s*`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// String sanitises one label: "&" becomes "and", spacing around "/" and runs
// of whitespace are collapsed, a trailing full stop is dropped, and the
// result is looked up in Mapping.
func String(s string) string {
	s = strings.ReplaceAll(s, "&", "and")
	s = slashSpacing.ReplaceAllString(s, "/")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".") {
		s = strings.TrimSpace(s[:len(s)-1])
	}
	if mapped, ok := Mapping[s]; ok {
		return mapped
	}
	return s
}

// List sanitises every element of values into a new slice.
func List(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = String(v)
	}
	return out
}
