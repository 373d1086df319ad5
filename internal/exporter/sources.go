package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"variantshare/internal/services/searchindex"
	"variantshare/internal/variant"
)

// StaticSource serves a fixed set of search documents, e.g. an exported
// index dump used by the CLI.
type StaticSource struct {
	docs []map[string]any
}

// NewStaticSource wraps raw documents.
func NewStaticSource(docs []map[string]any) *StaticSource {
	return &StaticSource{docs: docs}
}

// LoadStaticSource reads a JSON file holding either an array of documents or
// an Elasticsearch search response.
func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	docs, err := decodeDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return NewStaticSource(docs), nil
}

func decodeDocuments(data []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []map[string]any
		if err := decoder.Decode(&docs); err != nil {
			return nil, err
		}
		return docs, nil
	}
	var response struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := decoder.Decode(&response); err != nil {
		return nil, err
	}
	docs := make([]map[string]any, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// Fetch implements RecordSource. The scope is ignored.
func (s *StaticSource) Fetch(ctx context.Context, _ searchindex.Scope) (searchindex.Result, error) {
	if err := ctx.Err(); err != nil {
		return searchindex.Result{}, err
	}
	records, rejected := variant.ParseRecords(s.docs)
	return searchindex.Result{Records: records, Rejected: rejected, Total: len(s.docs)}, nil
}
