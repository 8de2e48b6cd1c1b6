// Package engine composes the field predicates into one stable filter over a
// roster.
package engine

import (
	"math"
	"strconv"
	"strings"

	"roster-search/internal/models"
	"roster-search/internal/search/geo"
	"roster-search/internal/search/predicates"
)

// GeoQuery is an active radius search.
type GeoQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// Query is a QueryState with its typed inputs parsed once, ready to be run
// against many records.
type Query struct {
	state models.QueryState

	text          string
	scoreActive   bool
	scoreOperand  float64
	geo           *GeoQuery
	followerCheck bool
}

func parseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseGeo returns the radius search described by q, or nil when latitude,
// longitude and radius are not all present and numeric.
func ParseGeo(q models.QueryState) *GeoQuery {
	lat, ok := parseCoordinate(q.Latitude)
	if !ok {
		return nil
	}
	lon, ok := parseCoordinate(q.Longitude)
	if !ok {
		return nil
	}
	radius, ok := parseCoordinate(q.Radius)
	if !ok {
		return nil
	}
	return &GeoQuery{Latitude: lat, Longitude: lon, RadiusKm: radius}
}

// Compile parses the typed inputs of q.
func Compile(q models.QueryState) *Query {
	c := &Query{
		state:         q,
		text:          q.SearchQuery,
		geo:           ParseGeo(q),
		followerCheck: q.Followers != "",
	}
	if predicates.ScoreActive(q.ScoreOperator, q.ScoreValue) {
		c.scoreActive = true
		c.scoreOperand, _ = predicates.ParseScoreOperand(q.ScoreValue)
	}
	return c
}

// Geo returns the active radius search, if any.
func (c *Query) Geo() *GeoQuery {
	return c.geo
}

// ActiveFilters names the dimensions that currently narrow the roster.
func (c *Query) ActiveFilters() []string {
	q := c.state
	var active []string
	if strings.TrimSpace(q.SearchQuery) != "" {
		active = append(active, "text")
	}
	if q.Country != "" {
		active = append(active, "location")
	}
	if q.Category != "" {
		active = append(active, "category")
	}
	if q.Status != "" {
		active = append(active, "status")
	}
	if q.Verified != "" {
		active = append(active, "verified")
	}
	if c.followerCheck {
		active = append(active, "followers")
	}
	if c.scoreActive {
		active = append(active, "score")
	}
	if c.geo != nil {
		active = append(active, "geo")
	}
	return active
}

// Match reports whether e satisfies every active filter.
func (c *Query) Match(e models.Entity) bool {
	f := e.Facets()
	q := c.state

	if !predicates.MatchText(f.Text, c.text) {
		return false
	}
	if !predicates.MatchLocation(f.Location, q.Country, q.Province, q.District) {
		return false
	}
	if !predicates.MatchEqual(f.Category, q.Category) {
		return false
	}
	if !predicates.MatchStatus(f.Status, q.Status) {
		return false
	}
	if !predicates.MatchVerified(f.Verified, q.Verified) {
		return false
	}
	if c.followerCheck && !predicates.MatchBucket(f.Followers, q.Followers) {
		return false
	}
	if c.scoreActive {
		if f.Score == nil || !predicates.CompareScore(*f.Score, q.ScoreOperator, c.scoreOperand) {
			return false
		}
	}
	if c.geo != nil {
		if f.Coordinates == nil {
			return false
		}
		if !geo.Within(c.geo.Latitude, c.geo.Longitude, f.Coordinates.Latitude, f.Coordinates.Longitude, c.geo.RadiusKm) {
			return false
		}
	}
	return true
}

// Filter returns the records matching q, in input order. records is not
// modified and the result never aliases it.
func Filter[T models.Entity](records []T, q models.QueryState) []T {
	return Apply(Compile(q), records)
}

// Apply is Filter for an already compiled query.
func Apply[T models.Entity](c *Query, records []T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
