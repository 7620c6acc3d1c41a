// Package qdrant provides a vector index adapter using the Qdrant
// REST API. Collections map to indexes; chunk ids are carried in the
// payload because Qdrant point ids must be numeric or UUID.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:6333"
	DefaultTimeout = 30 * time.Second

	// payloadIDKey stores the caller-supplied record id in the point
	// payload. Point ids themselves are UUIDs derived from it.
	payloadIDKey = "_id"
)

// Config holds configuration for the Qdrant adapter.
type Config struct {
	// BaseURL is the Qdrant HTTP endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey authenticates requests when the server requires it.
	APIKey string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Index talks to a Qdrant server over its REST API.
type Index struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewIndex creates a new Qdrant-backed vector index provider.
func NewIndex(cfg Config) *Index {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// distanceNames maps port metrics to Qdrant distance identifiers.
var distanceNames = map[string]string{
	driven.MetricCosine: "Cosine",
	driven.MetricDot:    "Dot",
	driven.MetricEuclid: "Euclid",
}

// CreateIndex creates a collection with the given dimension and metric.
// Qdrant returns 200 when the collection already exists with the same
// schema, so re-creation is naturally a no-op.
func (s *Index) CreateIndex(ctx context.Context, name string, dimension int, metric string) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidInput)
	}
	distance, ok := distanceNames[metric]
	if !ok {
		return fmt.Errorf("%w: unsupported metric %q", domain.ErrInvalidInput, metric)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": distance,
		},
	}
	return s.do(ctx, http.MethodPut, "/collections/"+name, body, nil)
}

// ListIndexes returns all collections with their dimension and metric.
func (s *Index) ListIndexes(ctx context.Context) ([]driven.IndexInfo, error) {
	var listResp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &listResp); err != nil {
		return nil, err
	}

	infos := make([]driven.IndexInfo, 0, len(listResp.Result.Collections))
	for _, col := range listResp.Result.Collections {
		var detail struct {
			Result struct {
				Config struct {
					Params struct {
						Vectors struct {
							Size     int    `json:"size"`
							Distance string `json:"distance"`
						} `json:"vectors"`
					} `json:"params"`
				} `json:"config"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodGet, "/collections/"+col.Name, nil, &detail); err != nil {
			return nil, err
		}
		infos = append(infos, driven.IndexInfo{
			Name:      col.Name,
			Dimension: detail.Result.Config.Params.Vectors.Size,
			Metric:    metricName(detail.Result.Config.Params.Vectors.Distance),
		})
	}
	return infos, nil
}

func metricName(distance string) string {
	for metric, name := range distanceNames {
		if name == distance {
			return metric
		}
	}
	return strings.ToLower(distance)
}

// Upsert writes records as points. Point ids are UUIDs derived
// deterministically from record ids, so re-upserting the same record
// overwrites rather than duplicates.
func (s *Index) Upsert(ctx context.Context, index string, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]map[string]any, len(records))
	for i, rec := range records {
		payload := make(map[string]any, len(rec.Metadata)+1)
		for k, v := range rec.Metadata {
			payload[k] = v
		}
		payload[payloadIDKey] = rec.ID

		points[i] = map[string]any{
			"id":      pointID(rec.ID),
			"vector":  rec.Vector,
			"payload": payload,
		}
	}

	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, "/collections/"+index+"/points?wait=true", body, nil)
}

// Query searches the collection and returns scored records with their
// payload restored as metadata.
func (s *Index) Query(ctx context.Context, index string, vector []float32, topK int, filter map[string]any) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		topK = 5
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if len(filter) > 0 {
		must := make([]map[string]any, 0, len(filter))
		for key, value := range filter {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		body["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+index+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	records := make([]domain.ScoredRecord, 0, len(resp.Result))
	for _, hit := range resp.Result {
		id, _ := hit.Payload[payloadIDKey].(string)
		metadata := make(map[string]any, len(hit.Payload))
		for k, v := range hit.Payload {
			if k == payloadIDKey {
				continue
			}
			metadata[k] = v
		}
		records = append(records, domain.ScoredRecord{
			ID:       id,
			Score:    hit.Score,
			Metadata: metadata,
		})
	}
	return records, nil
}

// pointID derives a stable UUID from a record id.
func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String()
}

// do sends one JSON request. Network failures, timeouts, rate limits
// and server errors are marked transient for the retry policy.
func (s *Index) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.MarkTransient(fmt.Errorf("qdrant %s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("qdrant %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode >= 500 {
			return domain.MarkTransient(err)
		}
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
