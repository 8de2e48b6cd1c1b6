package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	apperrors "roster-search/internal/common/errors"
	"roster-search/internal/models"
	"roster-search/internal/search/surface"
)

var tableHeader = []string{"ID", "Name", "Category", "Location", "Status", "Verified", "Followers", "Score"}

func tableRow(f models.Facets) []string {
	name := ""
	if len(f.Text) > 0 {
		name = f.Text[0]
	}
	score := "-"
	if f.Score != nil {
		score = strconv.FormatFloat(*f.Score, 'f', -1, 64)
	}
	return []string{
		strconv.FormatInt(f.ID, 10),
		name,
		f.Category,
		formatLocation(f.Location),
		string(f.Status),
		strconv.FormatBool(f.Verified),
		f.Followers,
		score,
	}
}

// formatLocation joins the set levels, narrowest first.
func formatLocation(l models.Location) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.District, l.Province, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func writeTable[T models.Entity](w io.Writer, res surface.Result[T], notice *apperrors.Notice) error {
	if notice != nil {
		if _, err := fmt.Fprintf(w, "! %s\n", notice.Message); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(tableHeader)
	for _, item := range res.Items {
		table.Append(tableRow(item.Facets()))
	}
	table.SetAutoFormatHeaders(false)
	table.Render()

	filters := "none"
	if len(res.ActiveFilters) > 0 {
		filters = strings.Join(res.ActiveFilters, ", ")
	}
	_, err := fmt.Fprintf(w, "page %d of %d, %d matches (filters: %s)\n",
		res.Page.Page, res.TotalPages, res.TotalItems, filters)
	return err
}
