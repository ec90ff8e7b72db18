package llmproto

import "testing"

func TestParseTasksFencedLenientTrailingComma(t *testing.T) {
	raw := "Here you go:\n```json\n[\n  {\"Title\": \"A\", \"PROMPT\": \"do a\", \"priority\": 2,},\n  {\"title\": \"B\", \"prompt\": \"do b\", \"priority\": 0},\n  {\"title\": \"\", \"prompt\": \"dropped\"},\n]\n```\n"
	specs, err := ParseTasks(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs (one dropped for missing title), got %d: %+v", len(specs), specs)
	}
	if specs[0].Title != "B" || specs[0].Priority != 0 {
		t.Fatalf("expected B (priority 0) first, got %+v", specs[0])
	}
	if specs[1].Title != "A" || specs[1].Priority != 2 {
		t.Fatalf("expected A (priority 2) second, got %+v", specs[1])
	}
}

func TestParseTasksNoArrayErrors(t *testing.T) {
	if _, err := ParseTasks("no json here at all"); err == nil {
		t.Fatalf("expected an error when no JSON array is present")
	}
}

func TestIsClarificationRequest(t *testing.T) {
	question, ok := IsClarificationRequest("[CLARIFICATION_NEEDED] what repo should I target?")
	if !ok {
		t.Fatalf("expected clarification marker to be detected")
	}
	if question != "what repo should I target?" {
		t.Fatalf("unexpected question: %q", question)
	}

	if _, ok := IsClarificationRequest("plain plan text"); ok {
		t.Fatalf("expected no clarification marker")
	}
}

func TestIsClearSignalCaseInsensitive(t *testing.T) {
	topic, ok := IsClearSignal("CLEAR: evaluate caching strategies")
	if !ok {
		t.Fatalf("expected CLEAR to be recognized case-insensitively")
	}
	if topic != "evaluate caching strategies" {
		t.Fatalf("unexpected topic: %q", topic)
	}

	if _, ok := IsClearSignal("still have questions"); ok {
		t.Fatalf("expected no clear signal")
	}
}

func TestParseDiscussionDepth(t *testing.T) {
	depth, ok := ParseDiscussionDepth("DISCUSSION_DEPTH: Deep\nTopic: ...")
	if !ok || depth != "Deep" {
		t.Fatalf("expected Deep, got %q ok=%v", depth, ok)
	}

	if _, ok := ParseDiscussionDepth("no depth marker here"); ok {
		t.Fatalf("expected no match")
	}
}

func TestParseObjectExtractsFromSurroundingText(t *testing.T) {
	raw := "Decision:\n{\"nextSpeaker\": \"alice\", \"convergenceScore\": 70, \"stopDiscussion\": false,}\nend"
	var decision struct {
		NextSpeaker      string `json:"nextSpeaker"`
		ConvergenceScore int    `json:"convergenceScore"`
		StopDiscussion   bool   `json:"stopDiscussion"`
	}
	if err := ParseObject(raw, &decision); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.NextSpeaker != "alice" || decision.ConvergenceScore != 70 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}
