package acs

import (
	"fmt"
	"strings"
)

// Wildcard selects every geography of a type.
const Wildcard = "*"

// stateGeography is the wire key for state-level queries, which never carry a
// containment clause.
const stateGeography = "state"

// Containment scopes a sub-state query to a parent geography, e.g.
// {Key: "county", Value: "001"}.
type Containment struct {
	Key   string
	Value string
}

// Query describes a single request for one geography type within a state.
type Query struct {
	State         string
	GeographyType string
	// Geography filters the geography type. Empty means Wildcard; several
	// values are comma-joined.
	Geography    []string
	Containments []Containment
}

// param is a single query string key/value pair.
type param struct {
	key   string
	value string
}

// BuildQuery serializes a query into the API's query string. Parameters are
// emitted in the fixed order get, for, in, key. The API's own separators
// (+ : , * and parentheses) are kept literal; any other reserved byte in a
// value is percent-encoded.
func BuildQuery(variables []string, apiKey string, q Query) string {
	geoType := ResolveGeography(q.GeographyType)
	state := "state:" + q.State

	params := []param{
		{key: "get", value: strings.Join(variables, ",")},
	}

	if geoType == stateGeography {
		params = append(params, param{key: "for", value: state})
	} else {
		params = append(params,
			param{key: "for", value: geoType + ":" + geographyFilter(q.Geography)},
			param{key: "in", value: containmentClause(state, q.Containments)},
		)
	}

	if apiKey != "" {
		params = append(params, param{key: "key", value: apiKey})
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.key + "=" + escapeValue(p.value)
	}
	return strings.Join(parts, "&")
}

// escapeValue percent-encodes s except for unreserved characters and the
// separators the wire keys are written with.
func escapeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if literalByte(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func literalByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.~+:,*()", c) >= 0
}

func geographyFilter(geo []string) string {
	if len(geo) == 0 {
		return Wildcard
	}
	return strings.Join(geo, ",")
}

func containmentClause(state string, extra []Containment) string {
	clauses := make([]string, 0, len(extra)+1)
	clauses = append(clauses, state)
	for _, c := range extra {
		clauses = append(clauses, ResolveGeography(c.Key)+":"+c.Value)
	}
	return strings.Join(clauses, "+")
}

// ParseContainment parses a "key:value" containment, as accepted by the CLI
// and the HTTP facade.
func ParseContainment(s string) (Containment, bool) {
	key, value, ok := strings.Cut(s, ":")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if !ok || key == "" || value == "" {
		return Containment{}, false
	}
	return Containment{Key: key, Value: value}, true
}
