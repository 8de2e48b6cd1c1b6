package querystate

import "roster-search/internal/models"

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	SearchQuery *string

	Country  *string
	Province *string
	District *string
	Category *string
	Status   *string
	Verified *string

	Followers *string

	ScoreOperator *models.ScoreOperator
	ScoreValue    *string

	Latitude  *string
	Longitude *string
	Radius    *string

	CurrentPage *int

	ShowAdvancedFilters *bool
}

// Ptr returns a pointer to v, for building Changes literals.
func Ptr[V any](v V) *V {
	return &v
}

func set[V comparable](dst *V, src *V) bool {
	if src == nil || *dst == *src {
		return false
	}
	*dst = *src
	return true
}

// apply merges c into q and reports whether any filtering field changed.
//
// Choosing a new country clears province and district, and a new province
// clears district, unless c sets them itself. A filtering change sends the
// cursor back to page 1 unless c sets the page. Pages below 1 become 1.
func (c Changes) apply(q *models.QueryState) bool {
	countryChanged := set(&q.Country, c.Country)
	if countryChanged && c.Province == nil {
		q.Province = ""
	}
	provinceChanged := set(&q.Province, c.Province)
	if (countryChanged || provinceChanged) && c.District == nil {
		q.District = ""
	}

	filtering := countryChanged || provinceChanged
	for _, changed := range []bool{
		set(&q.SearchQuery, c.SearchQuery),
		set(&q.District, c.District),
		set(&q.Category, c.Category),
		set(&q.Status, c.Status),
		set(&q.Verified, c.Verified),
		set(&q.Followers, c.Followers),
		set(&q.ScoreOperator, c.ScoreOperator),
		set(&q.ScoreValue, c.ScoreValue),
		set(&q.Latitude, c.Latitude),
		set(&q.Longitude, c.Longitude),
		set(&q.Radius, c.Radius),
	} {
		filtering = filtering || changed
	}

	set(&q.ShowAdvancedFilters, c.ShowAdvancedFilters)

	if c.CurrentPage != nil {
		q.CurrentPage = max(*c.CurrentPage, 1)
	} else if filtering {
		q.CurrentPage = 1
	}
	return filtering
}
