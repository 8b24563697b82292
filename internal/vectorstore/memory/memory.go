// Package memory is a brute-force cosine-similarity store used for local
// runs and tests.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"customgpt/internal/vectorstore"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string][]vectorstore.Point
}

func NewStore() *Store {
	return &Store{collections: make(map[string][]vectorstore.Point)}
}

func (s *Store) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection]), nil
}

func (s *Store) Upsert(_ context.Context, collection string, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.collections[collection]
	for _, p := range points {
		replaced := false
		for i := range existing {
			if existing[i].ID == p.ID {
				existing[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, p)
		}
	}
	s.collections[collection] = existing
	return nil
}

func (s *Store) Search(_ context.Context, collection string, vector []float32, scoreThreshold float64, limit int) ([]vectorstore.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hits []vectorstore.Hit
	for _, p := range s.collections[collection] {
		score := cosine(vector, p.Vector)
		if score >= scoreThreshold {
			hits = append(hits, vectorstore.Hit{Score: score, Payload: p.Payload})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
