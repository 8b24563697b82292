// Package chat answers user queries, optionally grounded on chunks
// retrieved from the vector store.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"customgpt/internal/llm"
	"customgpt/internal/models"
	"customgpt/internal/settings"
	"customgpt/internal/vectorstore"
)

// LLM is the subset of the language model client the chat service uses.
type LLM interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Complete(ctx context.Context, messages []llm.Message, params llm.ModelParams) (string, error)
}

// Service retrieves context and produces chat completions.
type Service struct {
	store      vectorstore.Store
	llm        LLM
	settings   settings.Source
	collection string
}

func NewService(store vectorstore.Store, client LLM, source settings.Source, collection string) *Service {
	return &Service{store: store, llm: client, settings: source, collection: collection}
}

// RelevantChunks embeds the query and returns the rendered text of every
// hit above the similarity threshold, plus a source label per chunk.
// Retrieval failures degrade to an answer without context rather than an
// error, so both slices come back empty in that case.
func (s *Service) RelevantChunks(ctx context.Context, query string, snap settings.Snapshot) (contexts, sources []string) {
	vec, err := s.llm.Embed(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("embedding query failed")
		return nil, nil
	}
	hits, err := s.store.Search(ctx, s.collection, vec, snap.SimilarityThreshold, snap.RAGLimit)
	if err != nil {
		log.Error().Err(err).Msg("vector search failed")
		return nil, nil
	}
	for _, hit := range hits {
		var text, kind, filename string
		switch p := hit.Payload.(type) {
		case models.QAPairPayload:
			if p.Question == "" && p.Answer == "" {
				continue
			}
			text = fmt.Sprintf("Q: %s\nA: %s", p.Question, p.Answer)
			kind, filename = models.PayloadTypeQAPair, p.Filename
		case models.DocumentChunkPayload:
			if strings.TrimSpace(p.Content) == "" {
				continue
			}
			text = p.Content
			kind, filename = models.PayloadTypeDocumentChunk, p.Filename
		case models.ImageDescriptionPayload:
			if strings.TrimSpace(p.Content.GeneralDescription) == "" {
				continue
			}
			text = "Image description: " + p.Content.GeneralDescription
			kind, filename = "image", p.Filename
		case models.EmailContentPayload:
			if strings.TrimSpace(p.Content) == "" {
				continue
			}
			text = p.Content
			kind, filename = models.PayloadTypeEmailContent, p.Filename
		case models.AttachmentTextPayload:
			if strings.TrimSpace(p.Content) == "" {
				continue
			}
			text = p.Content
			kind, filename = models.PayloadTypeAttachmentText, p.Filename
		default:
			log.Debug().Float64("score", hit.Score).Msg("skipping hit with unknown payload type")
			continue
		}
		contexts = append(contexts, text)
		sources = append(sources, fmt.Sprintf("%s from %s (score: %.3f)", kind, filename, hit.Score))
	}
	log.Info().Int("chunks", len(contexts)).Str("query", query).Msg("retrieved context")
	return contexts, sources
}

// Answer produces a completion for the query. With useRAG set, retrieval
// runs on every turn and the hit labels are always returned; the retrieved
// context is only folded into a fresh system message when the history is
// empty. A non-empty history is replayed verbatim without injection: the
// system message from the first turn already carries its context.
func (s *Service) Answer(ctx context.Context, query string, history []llm.Message, useRAG bool) (string, []string, error) {
	snap, err := s.settings.Current(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("reading settings: %w", err)
	}

	var contexts, sources []string
	if useRAG {
		contexts, sources = s.RelevantChunks(ctx, query, snap)
	}

	var messages []llm.Message
	if len(history) == 0 {
		system := snap.SystemMessage
		if system == "" {
			system = models.DefaultSystemMessage
		}
		if useRAG {
			system += "\n\nContext information:\n" + strings.Join(contexts, "\n\n")
		}
		messages = append(messages, llm.Message{Role: "system", Content: system})
	} else {
		messages = append(messages, history...)
	}
	messages = append(messages, llm.Message{Role: "user", Content: query})

	answer, err := s.llm.Complete(ctx, messages, snap.ModelParams())
	if err != nil {
		return "", nil, fmt.Errorf("completion: %w", err)
	}
	return answer, sources, nil
}
