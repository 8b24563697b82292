// Package qa drives chunked document text through the completion model to
// produce question/answer pairs.
package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"customgpt/internal/llm"
	"customgpt/internal/models"
)

// Completer is the completion call the generator depends on.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, p llm.ModelParams) (string, error)
}

type Generator struct {
	completer Completer
}

func NewGenerator(c Completer) *Generator {
	return &Generator{completer: c}
}

// Generate runs one completion per chunk and parses the pairs out of the
// free-text output. A failed call for one chunk is logged and skipped; the
// batch never aborts.
func (g *Generator) Generate(ctx context.Context, chunks []string, params llm.ModelParams) []models.QAPair {
	var all []models.QAPair
	for idx, chunk := range chunks {
		log.Info().Int("chunk", idx+1).Msg("generating Q&A")
		out, err := g.completer.Complete(ctx, []llm.Message{
			{Role: "system", Content: models.QASystemPrompt},
			{Role: "user", Content: fmt.Sprintf(models.QAUserPromptTemplate, chunk)},
		}, params)
		if err != nil {
			log.Error().Err(err).Int("chunk", idx+1).Msg("Q&A generation failed, skipping chunk")
			continue
		}
		all = append(all, ParsePairs(out)...)
	}
	return all
}

// ParsePairs scans completion output line by line. A line starting with
// "Q:" (case-insensitive) opens a new pending question, emitting the
// previous pair if both halves were set; "A:" fills the pending answer.
// A trailing question with no answer is dropped.
func ParsePairs(output string) []models.QAPair {
	var (
		pairs    []models.QAPair
		currentQ string
		currentA string
	)
	flush := func() {
		if currentQ != "" && currentA != "" {
			pairs = append(pairs, models.QAPair{Question: currentQ, Answer: currentA})
		}
	}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "q:"):
			flush()
			currentQ = strings.TrimSpace(line[2:])
			currentA = ""
		case strings.HasPrefix(lower, "a:"):
			currentA = strings.TrimSpace(line[2:])
		}
	}
	flush()
	return pairs
}
