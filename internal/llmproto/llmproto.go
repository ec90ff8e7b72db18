// Package llmproto holds the lenient parsing helpers shared by the Office and
// Panel orchestrators for turning free-form LLM text into structured data:
// stripping Markdown code fences, slicing out the JSON payload, and tolerating
// the small malformations real model output tends to contain (trailing
// commas, inline comments, mixed key casing). Every entry point here is
// fail-open: callers supply a fallback value for when parsing doesn't work
// out, per §4.7/§4.9's "structured LLM parsing" sections.
package llmproto

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_-]*\n)?(.*?)```")

// StripFences returns the contents of the first fenced code block in s, or s
// unchanged if it contains no fence.
func StripFences(s string) string {
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// ExtractBetween returns the substring spanning the first occurrence of open
// to the last occurrence of close, inclusive. ok is false if open is missing
// or close appears before open.
func ExtractBetween(s string, open, closeByte byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(s, closeByte)
	if end < start {
		return "", false
	}
	return s[start : end+1], true
}

var (
	lineComment   = regexp.MustCompile(`(?m)//[^\n]*$`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// Relax strips trailing line comments and trailing commas from s so a
// slightly malformed JSON response still parses.
func Relax(s string) string {
	s = lineComment.ReplaceAllString(s, "")
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}

// DecodeObjects parses s (after Relax) as a JSON array of objects and
// lower-cases every key, so callers can read fields case-insensitively.
func DecodeObjects(s string) ([]map[string]any, error) {
	var raw []map[string]any
	if err := json.Unmarshal([]byte(Relax(s)), &raw); err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(raw))
	for i, obj := range raw {
		lower := make(map[string]any, len(obj))
		for k, v := range obj {
			lower[strings.ToLower(k)] = v
		}
		out[i] = lower
	}
	return out, nil
}

// TaskSpec is one entry of a parsed task list (§4.7 "Tasks" structured parsing).
type TaskSpec struct {
	Title    string
	Prompt   string
	Priority int
}

// ParseTasks extracts a JSON array of {title, prompt, priority} objects from
// raw, tolerating a fenced-code wrapper, mixed key casing, and trailing
// commas. Entries missing title or prompt are dropped. The result is sorted
// by priority ascending. An error is returned only when no JSON array could
// be located or parsed at all — callers are expected to fall back to a
// generic task list in that case (§4.7).
func ParseTasks(raw string) ([]TaskSpec, error) {
	body, ok := ExtractBetween(StripFences(raw), '[', ']')
	if !ok {
		return nil, errNoArray
	}
	objs, err := DecodeObjects(body)
	if err != nil {
		return nil, err
	}

	specs := make([]TaskSpec, 0, len(objs))
	for _, obj := range objs {
		title, _ := obj["title"].(string)
		prompt, _ := obj["prompt"].(string)
		if title == "" || prompt == "" {
			continue
		}
		priority := 0
		if p, ok := obj["priority"].(float64); ok {
			priority = int(p)
		}
		specs = append(specs, TaskSpec{Title: title, Prompt: prompt, Priority: priority})
	}

	sort.SliceStable(specs, func(a, b int) bool { return specs[a].Priority < specs[b].Priority })
	return specs, nil
}

var errNoArray = jsonArrayNotFoundError{}

type jsonArrayNotFoundError struct{}

func (jsonArrayNotFoundError) Error() string { return "llmproto: no JSON array found in input" }

// ParseObject extracts and decodes a single JSON object from raw (after
// fence-stripping and comma/comment relaxation) into v, the way the Moderator
// decision and Knowledge Brief parsers do (§4.9, §4.10).
func ParseObject(raw string, v any) error {
	body, ok := ExtractBetween(StripFences(raw), '{', '}')
	if !ok {
		return errNoObject
	}
	return json.Unmarshal([]byte(Relax(body)), v)
}

var errNoObject = jsonObjectNotFoundError{}

type jsonObjectNotFoundError struct{}

func (jsonObjectNotFoundError) Error() string { return "llmproto: no JSON object found in input" }

// ClarificationPrefix is the marker that routes a Planning response to the
// Clarifying phase (§4.7).
const ClarificationPrefix = "[CLARIFICATION_NEEDED]"

// IsClarificationRequest reports whether an LLM plan response requests
// clarification before proceeding, and returns the question text with the
// marker stripped.
func IsClarificationRequest(planResponse string) (question string, ok bool) {
	trimmed := strings.TrimSpace(planResponse)
	if !strings.HasPrefix(trimmed, ClarificationPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, ClarificationPrefix)), true
}

// clearPrefix is the Panel Head's case-insensitive reply meaning clarification
// is complete (§4.8).
const clearPrefix = "clear:"

// IsClearSignal reports whether a Head clarification reply signals
// completion, returning the composed Topic of Discussion with the marker
// stripped.
func IsClearSignal(reply string) (topic string, ok bool) {
	trimmed := strings.TrimSpace(reply)
	if len(trimmed) < len(clearPrefix) || !strings.EqualFold(trimmed[:len(clearPrefix)], clearPrefix) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(clearPrefix):]), true
}

var discussionDepthLine = regexp.MustCompile(`(?im)^DISCUSSION_DEPTH:\s*(Quick|Standard|Deep)\s*$`)

// ParseDiscussionDepth scans text for a `DISCUSSION_DEPTH: (Quick|Standard|Deep)`
// line (§4.8) and returns the matched depth, if any.
func ParseDiscussionDepth(text string) (depth string, ok bool) {
	m := discussionDepthLine.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
