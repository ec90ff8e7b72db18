package brief

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/corerun/orchestrator/internal/chatclient/chatclienttest"
	"github.com/corerun/orchestrator/internal/orchtypes"
)

func TestGenerateParsesWellFormedJSON(t *testing.T) {
	fake := chatclienttest.New()
	fake.Responder = func(sessionID, prompt string) (string, error) {
		return `{"summary":"It converged.","keyArguments":["a","b"],"consensusPoints":["c"]}`, nil
	}

	got := Generate(context.Background(), fake, "full synthesis text", []string{"one-liner"})
	if got.Summary != "It converged." {
		t.Fatalf("unexpected summary: %q", got.Summary)
	}
	if len(got.KeyArguments) != 2 {
		t.Fatalf("unexpected key arguments: %+v", got.KeyArguments)
	}
	if len(fake.TerminatedSessions()) != 1 {
		t.Fatalf("expected the ephemeral session to be terminated exactly once, got %v", fake.TerminatedSessions())
	}
}

func TestGenerateFallsBackOnTransportError(t *testing.T) {
	fake := chatclienttest.New()
	fake.Responder = func(sessionID, prompt string) (string, error) {
		return "", errors.New("boom")
	}

	got := Generate(context.Background(), fake, "short synthesis", []string{"one", "two", "three", "four", "five", "six"})
	if got.Summary != "short synthesis" {
		t.Fatalf("unexpected fallback summary: %q", got.Summary)
	}
	if len(got.KeyArguments) != 5 {
		t.Fatalf("expected fallback to keep only the first five one-liners, got %+v", got.KeyArguments)
	}
}

func TestGenerateFallsBackOnUnparsableResponse(t *testing.T) {
	fake := chatclienttest.New()
	fake.Responder = func(sessionID, prompt string) (string, error) {
		return "not json at all", nil
	}

	got := Generate(context.Background(), fake, "synthesis", nil)
	if got.Summary != "synthesis" {
		t.Fatalf("unexpected fallback summary: %q", got.Summary)
	}
}

func TestAnswerFollowUpInjectsBriefContext(t *testing.T) {
	var seenPrompt string
	fake := chatclienttest.New()
	fake.Responder = func(sessionID, prompt string) (string, error) {
		seenPrompt = prompt
		return "the answer", nil
	}

	b := orchtypes.KnowledgeBrief{Summary: "a summary", ConsensusPoints: []string{"point one"}}
	answer, err := AnswerFollowUp(context.Background(), fake, b, "what about risk?")
	if err != nil {
		t.Fatalf("AnswerFollowUp: %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if !strings.Contains(seenPrompt, "a summary") || !strings.Contains(seenPrompt, "point one") || !strings.Contains(seenPrompt, "what about risk?") {
		t.Fatalf("expected brief context and question injected into prompt, got: %q", seenPrompt)
	}
	if len(fake.TerminatedSessions()) != 1 {
		t.Fatalf("expected the ephemeral follow-up session to be terminated, got %v", fake.TerminatedSessions())
	}
}
