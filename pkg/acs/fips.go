package acs

import (
	"strings"
)

// Canonical code widths used by the API's geography identifier columns.
const (
	stateFIPSWidth       = 2
	countyFIPSWidth      = 3
	tractCodeWidth       = 6
	subdivisionCodeWidth = 5
)

// NormalizeStateFIPS normalizes a state FIPS code to 2 digits with zero-padding.
// The wildcard "*" is returned unchanged.
func NormalizeStateFIPS(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || code == Wildcard {
		return code
	}
	if len(code) == 1 {
		return "0" + code
	}
	return code
}

// ValidStateFIPS reports whether code is a normalized 2-digit state FIPS code
// or the wildcard.
func ValidStateFIPS(code string) bool {
	if code == Wildcard {
		return true
	}
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TractCode returns the 6-digit tract code from a tract identifier, which may
// be a full 11-digit GEOID (state + county + tract).
func TractCode(id string) string {
	return lastN(strings.TrimSpace(id), tractCodeWidth)
}

// TractCounty returns the 3-digit county code of a full 11-digit tract GEOID.
// The second return is false for shorter identifiers.
func TractCounty(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if len(id) != stateFIPSWidth+countyFIPSWidth+tractCodeWidth {
		return "", false
	}
	return id[stateFIPSWidth : stateFIPSWidth+countyFIPSWidth], true
}

// SubdivisionCode returns the 5-digit county subdivision code from an
// identifier, which may be a full 10-digit GEOID.
func SubdivisionCode(id string) string {
	return lastN(strings.TrimSpace(id), subdivisionCodeWidth)
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// geoColumns lists the geography identifier columns the API appends to each
// row, outermost first.
var geoColumns = []string{
	"state",
	"county",
	"county subdivision",
	"tract",
	"place",
	"congressional district",
	"state legislative district (upper chamber)",
	"state legislative district (lower chamber)",
	"zip code tabulation area",
}

// GeoID concatenates the geography identifier columns present in rec,
// outermost first. A county record yields "09001", a tract "09001240200".
func GeoID(rec Record) string {
	var b strings.Builder
	for _, col := range geoColumns {
		b.WriteString(rec.String(col))
	}
	return b.String()
}

// IsGeoColumn reports whether col is a geography identifier column.
func IsGeoColumn(col string) bool {
	for _, c := range geoColumns {
		if c == col {
			return true
		}
	}
	return false
}
