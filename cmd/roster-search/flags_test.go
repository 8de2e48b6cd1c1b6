package main

import (
	"io"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-search/internal/models"
	"roster-search/internal/querystate"
)

func parseSearchFlags(args []string) (*searchFlags, *pflag.FlagSet, error) {
	f := &searchFlags{}
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addSearchFlags(fs, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs, f.validate()
}

func TestSearchFlags_Changes(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		expected  querystate.Changes
		expectAny bool
	}{
		{
			name:      "no filters",
			args:      []string{"--surface", "brands"},
			expected:  querystate.Changes{},
			expectAny: false,
		},
		{
			name: "text and location",
			args: []string{"-q", "momo", "--country", "Nepal", "--province", "Bagmati"},
			expected: querystate.Changes{
				SearchQuery: querystate.Ptr("momo"),
				Country:     querystate.Ptr("Nepal"),
				Province:    querystate.Ptr("Bagmati"),
			},
			expectAny: true,
		},
		{
			name: "explicit empty clears a filter",
			args: []string{"--followers", ""},
			expected: querystate.Changes{
				Followers: querystate.Ptr(""),
			},
			expectAny: true,
		},
		{
			name: "score, geo and page",
			args: []string{"--score-op", "greaterOrEqual", "--score", "80", "--lat", "27.7172", "--lon", "85.324", "--radius", "50", "--page", "3"},
			expected: querystate.Changes{
				ScoreOperator: querystate.Ptr(models.ScoreGreaterOrEqual),
				ScoreValue:    querystate.Ptr("80"),
				Latitude:      querystate.Ptr("27.7172"),
				Longitude:     querystate.Ptr("85.324"),
				Radius:        querystate.Ptr("50"),
				CurrentPage:   querystate.Ptr(3),
			},
			expectAny: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, fs, err := parseSearchFlags(tt.args)
			require.NoError(t, err)

			got, changed := f.changes(fs)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expectAny, changed)
		})
	}
}

func TestSearchFlags_Validate(t *testing.T) {
	f, _, err := parseSearchFlags([]string{"--surface", "brands", "-o", "table"})
	require.NoError(t, err)
	assert.Equal(t, models.SurfaceBrands, f.surfaceName())
	assert.Equal(t, formatTable, f.format)

	f, _, err = parseSearchFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, models.SurfaceCreators, f.surfaceName())
	assert.Equal(t, formatJSON, f.format)

	_, _, err = parseSearchFlags([]string{"--surface", "agencies"})
	assert.Error(t, err)

	_, _, err = parseSearchFlags([]string{"--format", "csv"})
	assert.Error(t, err)
}
