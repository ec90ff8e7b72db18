// Package moderator implements the Panel's per-turn decision parsing and
// heuristic convergence scoring (§4.9, C9). Neither function talks to an LLM
// directly; the caller supplies the Moderator's raw text response and the
// recent transcript window, mirroring the teacher's transcript_repair.go
// pattern of pure functions operating on message slices.
package moderator

import (
	"strings"

	"github.com/corerun/orchestrator/internal/llmproto"
	"github.com/corerun/orchestrator/internal/orchtypes"
)

// ParseDecision extracts a ModeratorDecision from raw LLM output, clamping
// convergenceScore to [0,100] and falling back to
// orchtypes.FallbackModeratorDecision on any parse failure (§4.9).
func ParseDecision(raw string) orchtypes.ModeratorDecision {
	var decision orchtypes.ModeratorDecision
	if err := llmproto.ParseObject(raw, &decision); err != nil {
		return orchtypes.FallbackModeratorDecision()
	}

	if decision.ConvergenceScore < 0 {
		decision.ConvergenceScore = 0
	}
	if decision.ConvergenceScore > 100 {
		decision.ConvergenceScore = 100
	}
	return decision
}

// agreementSignals are the case-insensitive phrases the heuristic detector
// treats as evidence of converging consensus (§4.9).
var agreementSignals = []string{
	"i agree", "building on", "as mentioned", "echoing", "consistent with",
	"aligning with", "in line with", "similar to what", "reinforcing", "corroborating",
}

// recentWindow is the number of trailing panelist messages the heuristic
// detector inspects for agreement signals and message-length decay (§4.9).
const recentWindow = 6

// ShouldEvaluate reports whether the heuristic detector should run for this
// turn: on turns of at least 4 that are multiples of 3 (6, 9, 12, ...), or
// unconditionally once turn exceeds maxTurns (forced convergence, §4.9).
func ShouldEvaluate(turn, maxTurns int) bool {
	if maxTurns > 0 && turn > maxTurns {
		return true
	}
	return turn >= 4 && turn%3 == 0
}

// Detect scores recent panelist messages per §4.9's point breakdown and
// reports whether the discussion has converged against threshold. messages
// should be the full transcript in chronological order; Detect considers only
// the trailing panelist messages within recentWindow. panelistNames lists
// every registered panelist's display name.
func Detect(messages []orchtypes.PanelMessage, panelistNames []string, turn, maxTurns, threshold int) (converged bool, score int) {
	if maxTurns > 0 && turn > maxTurns {
		return true, 100
	}

	recent := recentPanelistMessages(messages, recentWindow)
	if len(recent) == 0 {
		return false, 0
	}

	total := 0

	agreeing := 0
	for _, m := range recent {
		if containsAgreementSignal(m.Content) {
			agreeing++
		}
	}
	total += int(40 * float64(agreeing) / float64(len(recent)))

	total += lengthDecayPoints(recent)

	if maxTurns > 0 {
		total += clampInt((20 * turn) / maxTurns, 0, 20)
	}

	if allPanelistsPresent(recent, panelistNames) {
		total += 10
	}

	if total > 100 {
		total = 100
	}
	if threshold <= 0 {
		threshold = 80
	}
	return total >= threshold, total
}

func recentPanelistMessages(messages []orchtypes.PanelMessage, window int) []orchtypes.PanelMessage {
	var panelist []orchtypes.PanelMessage
	for _, m := range messages {
		if m.AuthorRole == orchtypes.RolePanelist {
			panelist = append(panelist, m)
		}
	}
	if len(panelist) > window {
		panelist = panelist[len(panelist)-window:]
	}
	return panelist
}

func containsAgreementSignal(content string) bool {
	lower := strings.ToLower(content)
	for _, signal := range agreementSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}

// lengthDecayPoints awards points when the second half of the window's
// average message length has shrunk relative to the first half, a signal
// that panelists are converging on shorter, more confirmatory messages.
func lengthDecayPoints(recent []orchtypes.PanelMessage) int {
	if len(recent) < 2 {
		return 0
	}
	mid := len(recent) / 2
	firstAvg := averageLength(recent[:mid])
	secondAvg := averageLength(recent[mid:])
	if firstAvg == 0 {
		return 0
	}
	ratio := secondAvg / firstAvg
	switch {
	case ratio < 0.7:
		return 20
	case ratio < 0.85:
		return 10
	default:
		return 0
	}
}

func averageLength(messages []orchtypes.PanelMessage) float64 {
	if len(messages) == 0 {
		return 0
	}
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return float64(total) / float64(len(messages))
}

func allPanelistsPresent(recent []orchtypes.PanelMessage, panelistNames []string) bool {
	if len(panelistNames) == 0 {
		return false
	}
	seen := make(map[string]bool, len(recent))
	for _, m := range recent {
		seen[m.AuthorName] = true
	}
	for _, name := range panelistNames {
		if !seen[name] {
			return false
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Validate applies the Moderator's message-acceptance policy (§4.8 step 6):
// a message matching any prohibited regex, or whose estimated token count
// (len/4) exceeds maxTokensPerTurn, is rejected; otherwise it is accepted.
// Estimation and regex matching mirror the teacher's lenient-by-default
// moderation posture — ambiguous input is accepted, not blocked.
func Validate(content string, prohibited []*RegexMatcher, maxTokensPerTurn int) orchtypes.ValidationVerdict {
	for _, m := range prohibited {
		if m.ForceConverge && m.MatchString(content) {
			return orchtypes.ValidationForceConverge
		}
	}
	for _, m := range prohibited {
		if !m.ForceConverge && m.MatchString(content) {
			return orchtypes.ValidationBlocked
		}
	}
	if maxTokensPerTurn > 0 && len(content)/4 > maxTokensPerTurn {
		return orchtypes.ValidationBlocked
	}
	return orchtypes.ValidationAccepted
}
