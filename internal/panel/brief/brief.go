// Package brief implements the post-synthesis Knowledge Brief and follow-up
// Q&A described in §4.10 (C10). Every call here opens an ephemeral chat
// session for one request/response round trip and tears it down immediately
// after, mirroring the teacher's short-lived per-call session pattern rather
// than reusing a long-lived Head session.
package brief

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/corerun/orchestrator/internal/chatclient"
	"github.com/corerun/orchestrator/internal/llmproto"
	"github.com/corerun/orchestrator/internal/orchtypes"
)

// Generate asks the Head (via a fresh ephemeral session) to compress the
// synthesis report into a structured KnowledgeBrief. On any transport or
// parse failure it falls back to a truncated synthesis plus the first five
// panelist one-liners (§4.10).
func Generate(ctx context.Context, client chatclient.ChatClient, synthesis string, panelistOneLiners []string) orchtypes.KnowledgeBrief {
	sessionID := "brief-" + uuid.NewString()
	defer func() { _ = client.TerminateSession(context.Background(), sessionID) }()

	prompt := buildGeneratePrompt(synthesis)
	_, resp, err := client.SendBlocking(ctx, sessionID, prompt)
	if err != nil {
		return fallbackBrief(synthesis, panelistOneLiners)
	}

	var out orchtypes.KnowledgeBrief
	if parseErr := llmproto.ParseObject(resp, &out); parseErr != nil {
		return fallbackBrief(synthesis, panelistOneLiners)
	}
	if strings.TrimSpace(out.Summary) == "" {
		out.Summary = truncate(synthesis, 500)
	}
	return out
}

// AnswerFollowUp injects brief as context into a fresh ephemeral Head session
// and asks question, returning the Head's answer (§4.10 "Follow-up").
func AnswerFollowUp(ctx context.Context, client chatclient.ChatClient, brief orchtypes.KnowledgeBrief, question string) (string, error) {
	sessionID := "followup-" + uuid.NewString()
	defer func() { _ = client.TerminateSession(context.Background(), sessionID) }()

	prompt := buildFollowUpPrompt(brief, question)
	_, resp, err := client.SendBlocking(ctx, sessionID, prompt)
	if err != nil {
		return "", err
	}
	return resp, nil
}

func buildGeneratePrompt(synthesis string) string {
	var b strings.Builder
	b.WriteString("Produce a JSON object {\"summary\":...,\"keyArguments\":[...],\"consensusPoints\":[...],\"dissentingViews\":[...],\"recommendations\":[...]} summarizing this synthesis report:\n\n")
	b.WriteString(synthesis)
	return b.String()
}

func buildFollowUpPrompt(brief orchtypes.KnowledgeBrief, question string) string {
	var b strings.Builder
	b.WriteString("Knowledge brief:\n")
	b.WriteString("Summary: " + brief.Summary + "\n")
	writeList(&b, "Key arguments", brief.KeyArguments)
	writeList(&b, "Consensus points", brief.ConsensusPoints)
	writeList(&b, "Dissenting views", brief.DissentingViews)
	writeList(&b, "Recommendations", brief.Recommendations)
	b.WriteString("\nFollow-up question: " + question)
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(label + ":\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}

// fallbackBrief builds a Fallback KnowledgeBrief from the synthesis text and
// the first five panelist one-liners, per §4.10's tolerant-parsing contract.
func fallbackBrief(synthesis string, panelistOneLiners []string) orchtypes.KnowledgeBrief {
	lines := panelistOneLiners
	if len(lines) > 5 {
		lines = lines[:5]
	}
	return orchtypes.KnowledgeBrief{
		Summary:      truncate(synthesis, 500),
		KeyArguments: append([]string(nil), lines...),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
