// Package llm wraps the OpenAI-compatible completion and embedding endpoint
// behind the two calls the pipeline needs.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"customgpt/internal/config"
	"customgpt/internal/models"
)

// Message is one chat message in provider-neutral form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelParams are the per-call completion parameters, snapshotted from
// settings at operation start.
type ModelParams struct {
	Model            string
	Temperature      float64
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
	MaxTokens        int
}

type Client struct {
	llm         *openai.LLM
	embedder    *embeddings.EmbedderImpl
	visionModel string
}

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing llm client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return &Client{llm: llm, embedder: embedder, visionModel: cfg.VisionModel}, nil
}

// Embed returns the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embedder.EmbedQuery(ctx, text)
}

// Complete runs one chat completion with the given parameters.
func (c *Client) Complete(ctx context.Context, messages []Message, p ModelParams) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(roleOf(m.Role), m.Content))
	}
	opts := []llms.CallOption{
		llms.WithTemperature(p.Temperature),
		llms.WithTopP(p.TopP),
		llms.WithPresencePenalty(p.PresencePenalty),
		llms.WithFrequencyPenalty(p.FrequencyPenalty),
		llms.WithMaxTokens(p.MaxTokens),
	}
	if p.Model != "" {
		opts = append(opts, llms.WithModel(p.Model))
	}
	res, err := c.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return res.Choices[0].Content, nil
}

// HasVision reports whether a vision model is configured for image
// description.
func (c *Client) HasVision() bool { return c.visionModel != "" }

// DescribeImage sends a base64 PNG to the vision model and wraps the answer
// as the image's general description.
func (c *Client) DescribeImage(ctx context.Context, imageBase64 string) (models.ImageDescription, error) {
	if c.visionModel == "" {
		return models.ImageDescription{}, fmt.Errorf("no vision model configured")
	}
	msg := llms.MessageContent{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.ImageURLContent{URL: "data:image/png;base64," + imageBase64},
			llms.TextContent{Text: models.ImageDescribePrompt},
		},
	}
	res, err := c.llm.GenerateContent(ctx, []llms.MessageContent{msg}, llms.WithModel(c.visionModel))
	if err != nil {
		return models.ImageDescription{}, err
	}
	if len(res.Choices) == 0 {
		return models.ImageDescription{}, fmt.Errorf("vision model returned no choices")
	}
	log.Debug().Msg("image described by vision model")
	return models.ImageDescription{
		GeneralDescription: strings.TrimSpace(res.Choices[0].Content),
		Tables:             []string{},
		Figures:            []string{},
		TextElements:       []string{},
	}, nil
}

func roleOf(role string) llms.ChatMessageType {
	switch strings.ToLower(role) {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant", "ai":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
