package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	apperrors "roster-search/internal/common/errors"
	"roster-search/internal/common/logger"
	"roster-search/internal/models"
)

// FileProvider reads a JSON array of records and validates it against the
// roster schema before decoding.
type FileProvider[T models.Entity] struct {
	path   string
	schema string
	log    logger.Logger
}

func NewCreatorFileProvider(path string, log logger.Logger) *FileProvider[models.Creator] {
	return &FileProvider[models.Creator]{path: path, schema: creatorSchema, log: log}
}

func NewBrandFileProvider(path string, log logger.Logger) *FileProvider[models.Brand] {
	return &FileProvider[models.Brand]{path: path, schema: brandSchema, log: log}
}

func (p *FileProvider[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, apperrors.NewRosterLoadFailedError(p.path, err)
	}
	return decodeRoster[T](p.path, p.schema, data, p.log)
}

// decodeRoster validates data against schema and decodes it.
func decodeRoster[T models.Entity](source, schema string, data []byte, log logger.Logger) ([]T, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, apperrors.NewRosterLoadFailedError(source, fmt.Errorf("validation error: %w", err))
	}
	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			problems[i] = desc.String()
		}
		log.Error("roster failed schema validation", map[string]interface{}{
			"source": source,
			"errors": problems,
		})
		return nil, apperrors.NewRosterValidationFailedError(source, problems)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.NewRosterLoadFailedError(source, err)
	}
	log.Info("roster loaded", map[string]interface{}{
		"source":  source,
		"records": len(records),
	})
	return records, nil
}
