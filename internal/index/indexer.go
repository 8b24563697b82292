// Package index computes embedding vectors for analyzed content and upserts
// them into the vector store in bounded batches, with cooperative pacing
// against the provider's rate limit.
package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"customgpt/internal/anonymize"
	"customgpt/internal/chunker"
	"customgpt/internal/models"
	"customgpt/internal/settings"
	"customgpt/internal/vectorstore"
)

// Embedder is the embedding call the indexer depends on.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Indexer turns Q&A pairs, document content and email bodies into points.
// Point ids are allocated as base+offset from the collection's point count
// observed at the start of each call; the scheme assumes one writer per
// collection and can collide under concurrent ingestions.
type Indexer struct {
	store    vectorstore.Store
	embedder Embedder

	// Pacing and batching knobs, overridable in tests.
	PauseEvery     int
	PauseFor       time.Duration
	BatchSize      int
	EmailBatchSize int
}

func NewIndexer(store vectorstore.Store, embedder Embedder) *Indexer {
	return &Indexer{
		store:          store,
		embedder:       embedder,
		PauseEvery:     20,
		PauseFor:       3 * time.Second,
		BatchSize:      10,
		EmailBatchSize: 50,
	}
}

// Result summarizes one document indexing call.
type Result struct {
	PointsAdded  int `json:"points_added"`
	QAPairsCount int `json:"qa_pairs_count"`
}

// Index embeds the analysis of one document: its Q&A pairs, its page text
// re-chunked at the fixed embedding window, and its image descriptions.
// Failed embeddings are skipped at item granularity; failed upserts at batch
// granularity. There is no rollback for batches already written.
func (ix *Indexer) Index(ctx context.Context, analysis *models.DocumentAnalysis, filename, collection string) (Result, error) {
	base, err := ix.store.Count(ctx, collection)
	if err != nil {
		return Result{}, fmt.Errorf("reading point count: %w", err)
	}
	log.Info().Int("count", base).Str("collection", collection).Msg("current point count")

	var points []vectorstore.Point
	embedded := 0

	log.Info().Int("pairs", len(analysis.QAPairs)).Msg("embedding Q&A pairs")
	for _, pair := range analysis.QAPairs {
		combined := fmt.Sprintf("Question: %s Answer: %s", pair.Question, pair.Answer)
		vec, ok := ix.embed(ctx, combined, &embedded)
		if !ok {
			continue
		}
		points = append(points, vectorstore.Point{
			ID:     uint64(base + len(points)),
			Vector: vec,
			Payload: models.QAPairPayload{
				Question: pair.Question,
				Answer:   pair.Answer,
				Filename: filename,
			},
		})
	}

	log.Info().Msg("embedding document content")
	for _, page := range analysis.Pages {
		for _, block := range page.Content {
			switch block.Type {
			case models.BlockText:
				for _, sc := range chunker.Split(block.Text, models.EmbedChunkSize, models.EmbedChunkOverlap) {
					if strings.TrimSpace(sc) == "" {
						continue
					}
					vec, ok := ix.embed(ctx, sc, &embedded)
					if !ok {
						continue
					}
					points = append(points, vectorstore.Point{
						ID:     uint64(base + len(points)),
						Vector: vec,
						Payload: models.DocumentChunkPayload{
							Content:    sc,
							PageNumber: page.PageNumber,
							Filename:   filename,
						},
					})
				}
			case models.BlockImageDescription:
				if block.Image == nil {
					continue
				}
				vec, ok := ix.embed(ctx, block.Image.GeneralDescription, &embedded)
				if !ok {
					continue
				}
				points = append(points, vectorstore.Point{
					ID:     uint64(base + len(points)),
					Vector: vec,
					Payload: models.ImageDescriptionPayload{
						Content:    *block.Image,
						PageNumber: page.PageNumber,
						Filename:   filename,
					},
				})
			}
		}
	}

	log.Info().Int("points", len(points)).Msg("upserting points")
	added := ix.upsertBatches(ctx, collection, points, ix.BatchSize)
	return Result{PointsAdded: added, QAPairsCount: len(analysis.QAPairs)}, nil
}

// IndexEmailContent chunks, anonymizes (expressions only) and indexes one
// email body. Chunk ids follow the chunk index, so skipped blank chunks
// leave gaps rather than shifting later ids.
func (ix *Indexer) IndexEmailContent(ctx context.Context, content, filename, collection string, snap settings.Snapshot) (int, error) {
	chunkSize := snap.ChunkSize
	if chunkSize == 0 {
		chunkSize = 500
	}
	expressions := anonymize.ParseExpressions(snap.Expressions)
	content = anonymize.ReplaceExpressions(content, expressions)
	chunks := chunker.Split(content, chunkSize, snap.ChunkOverlap)

	base, err := ix.store.Count(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("reading point count: %w", err)
	}

	var points []vectorstore.Point
	for idx, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		vec, err := ix.embedder.Embed(ctx, chunk)
		if err != nil {
			log.Error().Err(err).Int("chunk", idx).Msg("embedding email chunk failed")
			continue
		}
		points = append(points, vectorstore.Point{
			ID:     uint64(base + idx),
			Vector: vec,
			Payload: models.EmailContentPayload{
				Content:    chunk,
				ChunkIndex: idx,
				Filename:   filename,
				Source:     models.EmailSource,
			},
		})
	}
	return ix.upsertBatches(ctx, collection, points, ix.EmailBatchSize), nil
}

// IndexAttachmentText indexes extracted attachment text at the fixed
// embedding window.
func (ix *Indexer) IndexAttachmentText(ctx context.Context, text, filename, collection string) (int, error) {
	base, err := ix.store.Count(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("reading point count: %w", err)
	}
	var points []vectorstore.Point
	for idx, chunk := range chunker.Split(text, models.EmbedChunkSize, models.EmbedChunkOverlap) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		vec, err := ix.embedder.Embed(ctx, chunk)
		if err != nil {
			log.Error().Err(err).Int("chunk", idx).Msg("embedding attachment chunk failed")
			continue
		}
		points = append(points, vectorstore.Point{
			ID:     uint64(base + idx),
			Vector: vec,
			Payload: models.AttachmentTextPayload{
				Content:    chunk,
				ChunkIndex: idx,
				Filename:   filename,
				Source:     models.EmailSource,
			},
		})
	}
	return ix.upsertBatches(ctx, collection, points, ix.EmailBatchSize), nil
}

// embed wraps one embedding call with the cooperative pause: every
// PauseEvery successful calls, the next call waits PauseFor first. The
// counter only advances on success.
func (ix *Indexer) embed(ctx context.Context, text string, embedded *int) ([]float32, bool) {
	if *embedded > 0 && ix.PauseEvery > 0 && *embedded%ix.PauseEvery == 0 {
		log.Info().Msg("pausing to stay under the embedding rate limit")
		select {
		case <-time.After(ix.PauseFor):
		case <-ctx.Done():
			return nil, false
		}
	}
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("embedding failed, skipping item")
		return nil, false
	}
	*embedded++
	return vec, true
}

// upsertBatches writes points in fixed-size groups. A failed batch is
// logged and skipped; earlier batches stay written.
func (ix *Indexer) upsertBatches(ctx context.Context, collection string, points []vectorstore.Point, size int) int {
	if size <= 0 {
		size = 10
	}
	added := 0
	for i := 0; i < len(points); i += size {
		end := i + size
		if end > len(points) {
			end = len(points)
		}
		batch := points[i:end]
		if err := ix.store.Upsert(ctx, collection, batch); err != nil {
			log.Error().Err(err).Int("batch", i/size).Msg("upserting batch failed")
			continue
		}
		added += len(batch)
		log.Info().Int("points", len(batch)).Str("collection", collection).Msg("batch upserted")
	}
	return added
}
