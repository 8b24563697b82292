package settings

import (
	"context"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.ChunkSize != 500 || d.ChunkOverlap != 50 {
		t.Fatalf("unexpected chunking defaults: %+v", d)
	}
	if d.SimilarityThreshold != 0.79 || d.RAGLimit != 20 {
		t.Fatalf("unexpected retrieval defaults: %+v", d)
	}
	if d.ModelName != "gpt-3.5-turbo" || d.MaxTokens != 512 {
		t.Fatalf("unexpected model defaults: %+v", d)
	}
}

func TestModelParamsMapping(t *testing.T) {
	s := Snapshot{
		ModelName:        "gpt-4o",
		Temperature:      0.2,
		TopP:             0.9,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.4,
		MaxTokens:        256,
	}
	p := s.ModelParams()
	if p.Model != "gpt-4o" || p.Temperature != 0.2 || p.TopP != 0.9 {
		t.Fatalf("unexpected params: %+v", p)
	}
	if p.PresencePenalty != 0.1 || p.FrequencyPenalty != 0.4 || p.MaxTokens != 256 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestStaticSource(t *testing.T) {
	src := Static{Snapshot: Defaults()}
	got, err := src.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != Defaults() {
		t.Fatalf("static source mutated the snapshot: %+v", got)
	}
}
