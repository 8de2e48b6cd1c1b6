package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "roster-search/internal/common/errors"
	"roster-search/internal/common/logger"
	"roster-search/internal/models"
)

const defaultBatchSize = 500

// ElasticsearchProvider reads a roster index in id order, one search_after
// batch at a time, so it is not bounded by index.max_result_window.
type ElasticsearchProvider[T models.Entity] struct {
	client    *elasticsearch.Client
	index     string
	batchSize int
	log       logger.Logger
}

func NewElasticsearchProvider[T models.Entity](client *elasticsearch.Client, index string, batchSize int, log logger.Logger) *ElasticsearchProvider[T] {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ElasticsearchProvider[T]{client: client, index: index, batchSize: batchSize, log: log}
}

type searchResponse[T any] struct {
	Hits struct {
		Hits []struct {
			Source T                 `json:"_source"`
			Sort   []json.RawMessage `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

func (p *ElasticsearchProvider[T]) Load(ctx context.Context) ([]T, error) {
	source := "elasticsearch:" + p.index
	var (
		records []T
		after   []json.RawMessage
	)

	for {
		page, last, err := p.fetch(ctx, after)
		if err != nil {
			return nil, apperrors.NewRosterLoadFailedError(source, err)
		}
		records = append(records, page...)
		if len(page) < p.batchSize || len(last) == 0 {
			break
		}
		after = last
	}

	p.log.Info("roster loaded", map[string]interface{}{
		"source":  "elasticsearch",
		"index":   p.index,
		"records": len(records),
	})
	return records, nil
}

// fetch returns one batch after the given sort values and the sort values of
// its last hit.
func (p *ElasticsearchProvider[T]) fetch(ctx context.Context, after []json.RawMessage) ([]T, []json.RawMessage, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
		"size": p.batchSize,
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
	}
	if len(after) > 0 {
		query["search_after"] = after
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := p.client.Search(
		p.client.Search.WithContext(ctx),
		p.client.Search.WithIndex(p.index),
		p.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var parsed searchResponse[T]
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to parse response: %w", err)
	}

	hits := parsed.Hits.Hits
	out := make([]T, len(hits))
	for i, hit := range hits {
		out[i] = hit.Source
	}
	if len(hits) == 0 {
		return out, nil, nil
	}
	return out, hits[len(hits)-1].Sort, nil
}
