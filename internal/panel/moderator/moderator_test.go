package moderator

import (
	"reflect"
	"testing"
	"time"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

func TestParseDecisionClampsScore(t *testing.T) {
	d := ParseDecision(`Decision: {"nextSpeaker": "alice", "convergenceScore": 145, "stopDiscussion": true}`)
	if d.ConvergenceScore != 100 {
		t.Fatalf("expected score clamped to 100, got %d", d.ConvergenceScore)
	}
	if d.NextSpeaker != "alice" || !d.StopDiscussion {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestParseDecisionFallsBackOnUnparsableInput(t *testing.T) {
	d := ParseDecision("no json in here")
	fallback := orchtypes.FallbackModeratorDecision()
	if !reflect.DeepEqual(d, fallback) {
		t.Fatalf("expected fallback decision, got %+v", d)
	}
}

func TestShouldEvaluate(t *testing.T) {
	cases := []struct {
		turn, maxTurns int
		want           bool
	}{
		{turn: 3, maxTurns: 20, want: false},
		{turn: 6, maxTurns: 20, want: true},
		{turn: 4, maxTurns: 20, want: false},
		{turn: 5, maxTurns: 20, want: false},
		{turn: 21, maxTurns: 20, want: true},
	}
	for _, c := range cases {
		if got := ShouldEvaluate(c.turn, c.maxTurns); got != c.want {
			t.Errorf("ShouldEvaluate(%d, %d) = %v, want %v", c.turn, c.maxTurns, got, c.want)
		}
	}
}

func panelistMessage(name, content string) orchtypes.PanelMessage {
	return orchtypes.PanelMessage{
		AuthorName: name,
		AuthorRole: orchtypes.RolePanelist,
		Content:    content,
		Type:       orchtypes.MsgPanelistArgument,
		Timestamp:  time.Now().UTC(),
	}
}

func TestDetectForcesConvergencePastMaxTurns(t *testing.T) {
	converged, score := Detect(nil, nil, 25, 20, 80)
	if !converged || score != 100 {
		t.Fatalf("expected forced convergence, got converged=%v score=%d", converged, score)
	}
}

func TestDetectScoresAgreementAndPresence(t *testing.T) {
	panelists := []string{"alice", "bob"}
	messages := []orchtypes.PanelMessage{
		panelistMessage("alice", "I agree with this direction completely, and here is a fairly long rationale to make the first half of the window longer than the second half for the purposes of this test."),
		panelistMessage("bob", "Building on that initial point with additional context and elaboration to keep this message lengthy as well, for the same reason."),
		panelistMessage("alice", "Consistent with what has been mentioned so far, adding further detail to pad the length out appropriately for the decay check."),
		panelistMessage("bob", "Echoing that."),
		panelistMessage("alice", "Reinforcing it."),
		panelistMessage("bob", "Corroborating."),
	}
	converged, score := Detect(messages, panelists, 20, 20, 80)
	if score < 80 {
		t.Fatalf("expected a high convergence score from agreement+presence+decay, got %d", score)
	}
	if !converged {
		t.Fatalf("expected converged=true at score %d with threshold 80", score)
	}
}

func TestDetectLowScoreWhenDisagreeing(t *testing.T) {
	panelists := []string{"alice", "bob"}
	messages := []orchtypes.PanelMessage{
		panelistMessage("alice", "I think we should reconsider the whole architecture from scratch, here is a long detailed rationale explaining every consideration at length."),
		panelistMessage("bob", "I disagree entirely and propose something completely different, with an equally long and detailed counter-argument that does not shrink at all."),
	}
	converged, score := Detect(messages, panelists, 6, 20, 80)
	if converged {
		t.Fatalf("did not expect convergence, got score %d", score)
	}
	_ = score
}

func TestValidateBlocksProhibitedContent(t *testing.T) {
	m, err := NewRegexMatcher(`(?i)forbidden`, false)
	if err != nil {
		t.Fatalf("NewRegexMatcher: %v", err)
	}
	verdict := Validate("this contains a Forbidden word", []*RegexMatcher{m}, 0)
	if verdict != orchtypes.ValidationBlocked {
		t.Fatalf("expected Blocked, got %s", verdict)
	}
}

func TestValidateForceConvergeTakesPriority(t *testing.T) {
	blockM, _ := NewRegexMatcher(`(?i)stop`, false)
	forceM, _ := NewRegexMatcher(`(?i)stop everything`, true)
	verdict := Validate("stop everything now", []*RegexMatcher{blockM, forceM}, 0)
	if verdict != orchtypes.ValidationForceConverge {
		t.Fatalf("expected ForceConverge to take priority, got %s", verdict)
	}
}

func TestValidateBlocksOversizedMessages(t *testing.T) {
	content := make([]byte, 400)
	for i := range content {
		content[i] = 'a'
	}
	verdict := Validate(string(content), nil, 50)
	if verdict != orchtypes.ValidationBlocked {
		t.Fatalf("expected Blocked for oversized message, got %s", verdict)
	}
}

func TestValidateAcceptsOrdinaryMessage(t *testing.T) {
	verdict := Validate("a perfectly normal contribution", nil, 0)
	if verdict != orchtypes.ValidationAccepted {
		t.Fatalf("expected Accepted, got %s", verdict)
	}
}
