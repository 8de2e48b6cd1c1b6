// Package predicates implements one boolean check per filter dimension. An
// empty filter value always matches.
package predicates

import (
	"strings"

	"roster-search/internal/models"
)

// MatchText reports whether query occurs, case-insensitively, in any of
// fields. Surrounding spaces are part of the query. A blank query matches
// everything.
func MatchText(fields []string, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// MatchEqual is exact equality on one categorical field.
func MatchEqual(value, filter string) bool {
	return filter == "" || value == filter
}

// MatchStatus is MatchEqual for the moderation status.
func MatchStatus(status models.Status, filter string) bool {
	return MatchEqual(string(status), filter)
}

// MatchVerified accepts "true" or "false"; any other non-empty value never
// matches.
func MatchVerified(verified bool, filter string) bool {
	switch filter {
	case "":
		return true
	case "true":
		return verified
	case "false":
		return !verified
	}
	return false
}

// MatchLocation applies the country, province and district filters with
// cascading scope: the province filter only applies while a country is
// selected, and the district filter only while the province filter applies.
// A record missing a level that an active filter names does not match.
func MatchLocation(loc models.Location, country, province, district string) bool {
	if country == "" {
		return true
	}
	if loc.Country != country {
		return false
	}
	if province == "" {
		return true
	}
	if loc.Province != province {
		return false
	}
	return district == "" || loc.District == district
}
