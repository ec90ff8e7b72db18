package panel

import (
	"fmt"
	"strings"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// recentPanelistMessagesKept is the number of trailing panelist messages kept
// in full (up to maxMessageChars each) before Synthesizing compresses the
// rest into a single summary message (§4.8 "Synthesizing").
const recentPanelistMessagesKept = 40

// maxMessageChars truncates each kept message to this length.
const maxMessageChars = 500

// snippetChars is the length of each one-line snippet in the summary message.
const snippetChars = 80

// compressTranscript keeps the most recent recentPanelistMessagesKept
// panelist messages in full (truncated to maxMessageChars), and collapses
// every earlier message into one summary message listing one-line snippets
// (§4.8 "Synthesizing").
func compressTranscript(messages []orchtypes.PanelMessage) []orchtypes.PanelMessage {
	panelistIdx := make([]int, 0, len(messages))
	for i, m := range messages {
		if m.AuthorRole == orchtypes.RolePanelist {
			panelistIdx = append(panelistIdx, i)
		}
	}

	if len(panelistIdx) <= recentPanelistMessagesKept {
		return truncateAll(messages)
	}

	cutoffMsgIndex := panelistIdx[len(panelistIdx)-recentPanelistMessagesKept]

	var older []orchtypes.PanelMessage
	var kept []orchtypes.PanelMessage
	for i, m := range messages {
		if i < cutoffMsgIndex {
			older = append(older, m)
		} else {
			kept = append(kept, m)
		}
	}

	summary := summarize(older)
	out := make([]orchtypes.PanelMessage, 0, len(kept)+1)
	out = append(out, summary)
	out = append(out, truncateAll(kept)...)
	return out
}

func truncateAll(messages []orchtypes.PanelMessage) []orchtypes.PanelMessage {
	out := make([]orchtypes.PanelMessage, len(messages))
	for i, m := range messages {
		if m.AuthorRole == orchtypes.RolePanelist && len(m.Content) > maxMessageChars {
			m.Content = m.Content[:maxMessageChars] + "..."
		}
		out[i] = m
	}
	return out
}

func summarize(messages []orchtypes.PanelMessage) orchtypes.PanelMessage {
	var b strings.Builder
	b.WriteString("Earlier discussion (summarized):\n")
	for _, m := range messages {
		if m.AuthorRole != orchtypes.RolePanelist {
			continue
		}
		snippet := m.Content
		if len(snippet) > snippetChars {
			snippet = snippet[:snippetChars] + "..."
		}
		fmt.Fprintf(&b, "- %s: %s\n", m.AuthorName, snippet)
	}
	return orchtypes.PanelMessage{
		AuthorName: "system",
		AuthorRole: orchtypes.RoleModerator,
		Content:    b.String(),
		Type:       orchtypes.MsgModerationNote,
	}
}
