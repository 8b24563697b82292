// Package qdrant is a minimal REST client to Qdrant covering the four
// operations the pipeline consumes.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"customgpt/internal/models"
	"customgpt/internal/vectorstore"
)

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type Store struct {
	url    string
	apiKey string
	client *http.Client
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"exact": true}
	url := fmt.Sprintf("%s/collections/%s/points/count", s.url, collection)
	if err := s.do(ctx, http.MethodPost, url, body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *Store) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	encoded := make([]map[string]any, 0, len(points))
	for _, p := range points {
		payload, err := models.EncodePayload(p.Payload)
		if err != nil {
			return fmt.Errorf("encoding payload for point %d: %w", p.ID, err)
		}
		encoded = append(encoded, map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": payload,
		})
	}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, collection)
	return s.do(ctx, http.MethodPut, url, map[string]any{"points": encoded}, nil)
}

func (s *Store) Search(ctx context.Context, collection string, vector []float32, scoreThreshold float64, limit int) ([]vectorstore.Hit, error) {
	req := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": scoreThreshold,
		"with_payload":    true,
	}
	var resp struct {
		Result []struct {
			Score   float64         `json:"score"`
			Payload json.RawMessage `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, collection)
	if err := s.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	hits := make([]vectorstore.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		payload, err := models.DecodePayload(r.Payload)
		if err != nil {
			log.Debug().Err(err).Msg("skipping search hit with undecodable payload")
			continue
		}
		hits = append(hits, vectorstore.Hit{Score: r.Score, Payload: payload})
	}
	return hits, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, s.url+"/collections", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Result.Collections))
	for _, c := range resp.Result.Collections {
		names = append(names, c.Name)
	}
	return names, nil
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
