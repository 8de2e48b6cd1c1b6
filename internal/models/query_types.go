package models

// ScoreOperator compares a record's score against the query operand.
type ScoreOperator string

const (
	ScoreEquals         ScoreOperator = "equals"
	ScoreLessOrEqual    ScoreOperator = "lessOrEqual"
	ScoreGreaterOrEqual ScoreOperator = "greaterOrEqual"
)

// Surface names a search surface; each owns an independent QueryState.
type Surface string

const (
	SurfaceCreators Surface = "creator"
	SurfaceBrands   Surface = "brand"
)

// QueryState is the full filter state of one search surface. Every field
// always holds a value; the zero string means "no filter". Numeric inputs are
// kept as typed and parsed when the query is compiled. The JSON shape is the
// persisted snapshot format.
type QueryState struct {
	SearchQuery string `json:"searchQuery"`

	Country  string `json:"selectedCountry"`
	Province string `json:"selectedProvince"`
	District string `json:"selectedDistrict"`
	Category string `json:"selectedCategory"`
	Status   string `json:"selectedStatus"`
	Verified string `json:"selectedVerified"` // "", "true" or "false"

	Followers string `json:"selectedFollowers"` // bucket name

	ScoreOperator ScoreOperator `json:"selectedScore"`
	ScoreValue    string        `json:"scoreValue"`

	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Radius    string `json:"radius"` // kilometres

	CurrentPage int `json:"currentPage"`

	ShowAdvancedFilters bool `json:"showAdvancedFilters"`
}

// DefaultQueryState is the state a surface mounts with.
func DefaultQueryState() QueryState {
	return QueryState{CurrentPage: 1}
}
