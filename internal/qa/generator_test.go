package qa

import (
	"context"
	"errors"
	"testing"

	"customgpt/internal/llm"
)

type fakeCompleter struct {
	outputs []string
	errs    []error
	calls   int
}

func (f *fakeCompleter) Complete(_ context.Context, _ []llm.Message, _ llm.ModelParams) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	return f.outputs[i], nil
}

func TestParsePairs(t *testing.T) {
	out := `Here are the pairs:
Q: What is a cash pool?
A: A structure concentrating balances.

q: Who approves payments?
a: The treasurer.`
	pairs := ParsePairs(out)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d: %v", len(pairs), pairs)
	}
	if pairs[0].Question != "What is a cash pool?" || pairs[0].Answer != "A structure concentrating balances." {
		t.Fatalf("unexpected first pair: %+v", pairs[0])
	}
	if pairs[1].Question != "Who approves payments?" {
		t.Fatalf("case-insensitive prefix not handled: %+v", pairs[1])
	}
}

func TestParsePairsDropsDanglingQuestion(t *testing.T) {
	pairs := ParsePairs("Q: first?\nA: yes\nQ: dangling?")
	if len(pairs) != 1 {
		t.Fatalf("expected dangling question dropped, got %v", pairs)
	}
}

func TestParsePairsAnswerWithoutQuestion(t *testing.T) {
	if pairs := ParsePairs("A: orphan answer"); len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %v", pairs)
	}
}

func TestGenerateSkipsFailedChunks(t *testing.T) {
	f := &fakeCompleter{
		outputs: []string{"", "Q: q2?\nA: a2"},
		errs:    []error{errors.New("rate limited"), nil},
	}
	g := NewGenerator(f)
	pairs := g.Generate(context.Background(), []string{"chunk one", "chunk two"}, llm.ModelParams{})
	if f.calls != 2 {
		t.Fatalf("expected 2 completion calls, got %d", f.calls)
	}
	if len(pairs) != 1 || pairs[0].Question != "q2?" {
		t.Fatalf("unexpected pairs: %v", pairs)
	}
}
