// Package chromem backs the vector-store interface with an embedded
// chromem-go database, for running without an external Qdrant.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"customgpt/internal/models"
	"customgpt/internal/vectorstore"
)

type Store struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewStore opens a persistent database at path; an empty path keeps
// everything in memory.
func NewStore(path string) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("opening chromem database: %w", err)
		}
	}
	return &Store{db: db, collections: make(map[string]*chromem.Collection)}, nil
}

func (s *Store) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get/create collection %s: %w", name, err)
	}
	s.collections[name] = c
	return c, nil
}

func (s *Store) Count(_ context.Context, collection string) (int, error) {
	c, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

func (s *Store) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		payload, err := models.EncodePayload(p.Payload)
		if err != nil {
			return fmt.Errorf("encoding payload for point %d: %w", p.ID, err)
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.FormatUint(p.ID, 10),
			Content:   payloadText(p.Payload),
			Metadata:  map[string]string{"payload": string(payload)},
			Embedding: p.Vector,
		})
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, collection string, vector []float32, scoreThreshold float64, limit int) ([]vectorstore.Hit, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	n := limit
	if count := c.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}
	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	var hits []vectorstore.Hit
	for _, r := range results {
		if float64(r.Similarity) < scoreThreshold {
			continue
		}
		payload, err := models.DecodePayload([]byte(r.Metadata["payload"]))
		if err != nil {
			log.Debug().Err(err).Str("id", r.ID).Msg("skipping result with undecodable payload")
			continue
		}
		hits = append(hits, vectorstore.Hit{Score: float64(r.Similarity), Payload: payload})
	}
	return hits, nil
}

func (s *Store) ListCollections(_ context.Context) ([]string, error) {
	names := make([]string, 0)
	for name := range s.db.ListCollections() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// payloadText renders the indexed text of a payload, kept alongside the
// vector for inspection.
func payloadText(p models.Payload) string {
	switch v := p.(type) {
	case models.QAPairPayload:
		return fmt.Sprintf("Question: %s Answer: %s", v.Question, v.Answer)
	case models.DocumentChunkPayload:
		return v.Content
	case models.ImageDescriptionPayload:
		return v.Content.GeneralDescription
	case models.EmailContentPayload:
		return v.Content
	case models.AttachmentTextPayload:
		return v.Content
	default:
		return p.PayloadType()
	}
}
