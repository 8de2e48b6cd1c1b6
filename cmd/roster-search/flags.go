package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"roster-search/internal/models"
	"roster-search/internal/querystate"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// searchFlags holds the flags of the search command.
type searchFlags struct {
	surface string
	format  string

	query     string
	country   string
	province  string
	district  string
	category  string
	status    string
	verified  string
	followers string
	scoreOp   string
	score     string
	latitude  string
	longitude string
	radius    string
	page      int
	advanced  bool

	reset        bool
	nearMe       bool
	nearMeRadius float64
	serve        bool
}

func addSearchFlags(fs *pflag.FlagSet, f *searchFlags) {
	fs.StringVar(&f.surface, "surface", "creators", "search surface: creators or brands")
	fs.StringVarP(&f.format, "format", "o", formatJSON, "output format: json or table")

	fs.StringVarP(&f.query, "query", "q", "", "free-text search")
	fs.StringVar(&f.country, "country", "", "country filter")
	fs.StringVar(&f.province, "province", "", "province filter")
	fs.StringVar(&f.district, "district", "", "district filter")
	fs.StringVar(&f.category, "category", "", "niche (creators) or industry (brands)")
	fs.StringVar(&f.status, "status", "", "moderation status: pending, approved, rejected, blocked")
	fs.StringVar(&f.verified, "verified", "", "verification filter: true or false")
	fs.StringVar(&f.followers, "followers", "", `follower bucket, e.g. "10K - 100K"`)
	fs.StringVar(&f.scoreOp, "score-op", "", "score comparator: equals, lessOrEqual, greaterOrEqual")
	fs.StringVar(&f.score, "score", "", "score operand (0-100)")
	fs.StringVar(&f.latitude, "lat", "", "radius search centre latitude")
	fs.StringVar(&f.longitude, "lon", "", "radius search centre longitude")
	fs.StringVar(&f.radius, "radius", "", "radius search distance in km")
	fs.IntVar(&f.page, "page", 1, "page to show")
	fs.BoolVar(&f.advanced, "advanced", false, "remember the advanced filter panel as open")

	fs.BoolVar(&f.reset, "reset", false, "clear the saved query before applying other flags")
	fs.BoolVar(&f.nearMe, "near-me", false, "centre the radius search on the current location")
	fs.Float64Var(&f.nearMeRadius, "near-me-radius", 0, "radius in km to use with --near-me")
	fs.BoolVar(&f.serve, "serve", false, "keep running and serve /metrics until interrupted")
}

func (f *searchFlags) validate() error {
	switch f.surface {
	case "creators", "brands":
	default:
		return fmt.Errorf("unknown surface %q", f.surface)
	}
	switch f.format {
	case formatJSON, formatTable:
	default:
		return fmt.Errorf("unknown format %q", f.format)
	}
	return nil
}

func (f *searchFlags) surfaceName() models.Surface {
	if f.surface == "brands" {
		return models.SurfaceBrands
	}
	return models.SurfaceCreators
}

// changes turns the flags the user actually passed into a store update.
func (f *searchFlags) changes(fs *pflag.FlagSet) (querystate.Changes, bool) {
	var c querystate.Changes
	changed := false
	str := func(name, value string, dst **string) {
		if fs.Changed(name) {
			*dst = querystate.Ptr(value)
			changed = true
		}
	}

	str("query", f.query, &c.SearchQuery)
	str("country", f.country, &c.Country)
	str("province", f.province, &c.Province)
	str("district", f.district, &c.District)
	str("category", f.category, &c.Category)
	str("status", f.status, &c.Status)
	str("verified", f.verified, &c.Verified)
	str("followers", f.followers, &c.Followers)
	str("score", f.score, &c.ScoreValue)
	str("lat", f.latitude, &c.Latitude)
	str("lon", f.longitude, &c.Longitude)
	str("radius", f.radius, &c.Radius)

	if fs.Changed("score-op") {
		c.ScoreOperator = querystate.Ptr(models.ScoreOperator(f.scoreOp))
		changed = true
	}
	if fs.Changed("page") {
		c.CurrentPage = querystate.Ptr(f.page)
		changed = true
	}
	if fs.Changed("advanced") {
		c.ShowAdvancedFilters = querystate.Ptr(f.advanced)
		changed = true
	}
	return c, changed
}
