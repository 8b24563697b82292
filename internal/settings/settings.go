// Package settings holds the single mutable configuration record read at
// the start of each ingestion/query operation. Operations capture a
// Snapshot once and never re-read mid-flight, so a concurrent update only
// affects operations started after it.
package settings

import (
	"context"

	"customgpt/internal/llm"
)

// Snapshot is the immutable per-operation view of the global settings.
type Snapshot struct {
	ChunkSize           int     `json:"chunk_size"`
	ChunkOverlap        int     `json:"chunk_overlap"`
	Temperature         float64 `json:"temperature"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	RAGLimit            int     `json:"rag_limit"`
	ModelName           string  `json:"model_name"`
	TopP                float64 `json:"top_p"`
	PresencePenalty     float64 `json:"presence_penalty"`
	FrequencyPenalty    float64 `json:"frequency_penalty"`
	MaxTokens           int     `json:"max_tokens"`
	SystemMessage       string  `json:"system_message"`
	Expressions         string  `json:"expressions"` // semicolon-separated
}

// Defaults are the values the settings row is created with.
func Defaults() Snapshot {
	return Snapshot{
		ChunkSize:           500,
		ChunkOverlap:        50,
		Temperature:         0.3,
		SimilarityThreshold: 0.79,
		RAGLimit:            20,
		ModelName:           "gpt-3.5-turbo",
		TopP:                1.0,
		PresencePenalty:     0.0,
		FrequencyPenalty:    0.0,
		MaxTokens:           512,
	}
}

// ModelParams maps the completion-relevant fields onto per-call parameters.
func (s Snapshot) ModelParams() llm.ModelParams {
	return llm.ModelParams{
		Model:            s.ModelName,
		Temperature:      s.Temperature,
		TopP:             s.TopP,
		PresencePenalty:  s.PresencePenalty,
		FrequencyPenalty: s.FrequencyPenalty,
		MaxTokens:        s.MaxTokens,
	}
}

// Source yields the current settings at operation start.
type Source interface {
	Current(ctx context.Context) (Snapshot, error)
}

// Static is a fixed settings source for running without a database.
type Static struct {
	Snapshot Snapshot
}

func (s Static) Current(context.Context) (Snapshot, error) {
	return s.Snapshot, nil
}
