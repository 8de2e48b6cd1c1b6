// Package roster loads creator and brand records from the configured
// source. Records are loaded whole; filtering happens in memory.
package roster

import (
	"context"
	"embed"

	"roster-search/internal/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Provider loads every record of one roster.
type Provider[T models.Entity] interface {
	Load(ctx context.Context) ([]T, error)
}

// StaticProvider serves a fixed slice.
type StaticProvider[T models.Entity] struct {
	records []T
}

func NewStaticProvider[T models.Entity](records []T) *StaticProvider[T] {
	return &StaticProvider[T]{records: records}
}

// Load returns a copy of the records.
func (p *StaticProvider[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]T(nil), p.records...), nil
}

func mustSchema(name string) string {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

var (
	creatorSchema = mustSchema("creators.schema.json")
	brandSchema   = mustSchema("brands.schema.json")
)
