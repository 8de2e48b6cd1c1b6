package querystate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"roster-search/internal/models"
	"roster-search/internal/search/hierarchy"
)

// fieldDecoder restores one persisted field into q.
type fieldDecoder struct {
	name   string
	decode func(raw json.RawMessage, q *models.QueryState) error
}

func bind[V any](name string, target func(*models.QueryState) *V, check func(V) error) fieldDecoder {
	return fieldDecoder{
		name: name,
		decode: func(raw json.RawMessage, q *models.QueryState) error {
			var v V
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			if check != nil {
				if err := check(v); err != nil {
					return err
				}
			}
			*target(q) = v
			return nil
		},
	}
}

func checkVerified(v string) error {
	switch v {
	case "", "true", "false":
		return nil
	}
	return fmt.Errorf("verified filter %q is not true or false", v)
}

func checkOperator(op models.ScoreOperator) error {
	switch op {
	case "", models.ScoreEquals, models.ScoreLessOrEqual, models.ScoreGreaterOrEqual:
		return nil
	}
	return fmt.Errorf("unknown score operator %q", op)
}

func checkPage(p int) error {
	if p < 1 {
		return fmt.Errorf("page %d is below 1", p)
	}
	return nil
}

var fieldDecoders = []fieldDecoder{
	bind("searchQuery", func(q *models.QueryState) *string { return &q.SearchQuery }, nil),
	bind("selectedCountry", func(q *models.QueryState) *string { return &q.Country }, nil),
	bind("selectedProvince", func(q *models.QueryState) *string { return &q.Province }, nil),
	bind("selectedDistrict", func(q *models.QueryState) *string { return &q.District }, nil),
	bind("selectedCategory", func(q *models.QueryState) *string { return &q.Category }, nil),
	bind("selectedStatus", func(q *models.QueryState) *string { return &q.Status }, nil),
	bind("selectedVerified", func(q *models.QueryState) *string { return &q.Verified }, checkVerified),
	bind("selectedFollowers", func(q *models.QueryState) *string { return &q.Followers }, nil),
	bind("selectedScore", func(q *models.QueryState) *models.ScoreOperator { return &q.ScoreOperator }, checkOperator),
	bind("scoreValue", func(q *models.QueryState) *string { return &q.ScoreValue }, nil),
	bind("latitude", func(q *models.QueryState) *string { return &q.Latitude }, nil),
	bind("longitude", func(q *models.QueryState) *string { return &q.Longitude }, nil),
	bind("radius", func(q *models.QueryState) *string { return &q.Radius }, nil),
	bind("currentPage", func(q *models.QueryState) *int { return &q.CurrentPage }, checkPage),
	bind("showAdvancedFilters", func(q *models.QueryState) *bool { return &q.ShowAdvancedFilters }, nil),
}

// fieldError is one persisted field that fell back to its default.
type fieldError struct {
	field string
	err   error
}

// merge decodes snapshot over defaults one field at a time. Unknown keys are
// ignored, null keeps the default, and any field that fails to decode keeps
// its default and is reported. A snapshot that is not a JSON object yields
// defaults and a single report for field "*".
func merge(defaults models.QueryState, snapshot string, h *hierarchy.Hierarchy) (models.QueryState, []fieldError) {
	out := defaults

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(snapshot), &raw); err != nil {
		return defaults, []fieldError{{field: "*", err: err}}
	}
	if raw == nil {
		return defaults, []fieldError{{field: "*", err: fmt.Errorf("snapshot is null")}}
	}

	var problems []fieldError
	for _, fd := range fieldDecoders {
		value, ok := raw[fd.name]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			continue
		}
		if err := fd.decode(value, &out); err != nil {
			problems = append(problems, fieldError{field: fd.name, err: err})
		}
	}

	if h != nil {
		problems = append(problems, pruneLocation(&out, defaults, h)...)
	}
	return out, problems
}

// pruneLocation drops a restored province that does not belong to the
// restored country, and a district that does not belong to the province.
// Levels the hierarchy does not describe are left alone.
func pruneLocation(q *models.QueryState, defaults models.QueryState, h *hierarchy.Hierarchy) []fieldError {
	var problems []fieldError
	if q.Province != "" && h.HasChildren(hierarchy.LevelProvince, q.Country) &&
		!h.Contains(hierarchy.LevelProvince, q.Country, q.Province) {
		problems = append(problems, fieldError{
			field: "selectedProvince",
			err:   fmt.Errorf("province %q is not in %q", q.Province, q.Country),
		})
		q.Province = defaults.Province
		q.District = defaults.District
	}
	if q.District != "" && h.HasChildren(hierarchy.LevelDistrict, q.Province) &&
		!h.Contains(hierarchy.LevelDistrict, q.Province, q.District) {
		problems = append(problems, fieldError{
			field: "selectedDistrict",
			err:   fmt.Errorf("district %q is not in %q", q.District, q.Province),
		})
		q.District = defaults.District
	}
	return problems
}
