package main

import (
	"context"
	"errors"
	"time"

	"github.com/corerun/orchestrator/internal/orchtypes"
	"github.com/corerun/orchestrator/internal/store"
)

// Persisted keys match spec.md §6's literal filenames when backed by a
// FileStore: sanitizeKey("settings")+".json" == "settings.json", and so on.
const (
	keySettings          = "settings"
	keyToolApprovalRules = "tool-approval-rules"
)

// persistedSettings is the durable half of runtime config: values a running
// serve process may change at runtime (via the approval UI, or future
// settings endpoints) and that must survive a restart.
type persistedSettings struct {
	ApprovalUIMode  string                     `json:"approvalUiMode"`
	DiscussionDepth orchtypes.DiscussionDepth  `json:"discussionDepth,omitempty"`
}

// sessionRecord is the {sessionId}.json metadata blob written when an Office
// run starts (§6). Starting a Panel run writes no record.
type sessionRecord struct {
	SessionID string    `json:"sessionId"`
	Kind      string    `json:"kind"` // "office" | "panel"
	Objective string    `json:"objective"`
	StartedAt time.Time `json:"startedAt"`
}

func loadSettings(ctx context.Context, kv store.KVJSONStore, fallback orchtypes.ApprovalUIMode) persistedSettings {
	var s persistedSettings
	if err := kv.Get(ctx, keySettings, &s); err != nil {
		return persistedSettings{ApprovalUIMode: string(fallback)}
	}
	return s
}

func saveSettings(ctx context.Context, kv store.KVJSONStore, s persistedSettings) error {
	return kv.Put(ctx, keySettings, s)
}

func loadApprovalRules(ctx context.Context, kv store.KVJSONStore) (map[string]orchtypes.RuleDecision, error) {
	var rules map[string]orchtypes.RuleDecision
	if err := kv.Get(ctx, keyToolApprovalRules, &rules); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return map[string]orchtypes.RuleDecision{}, nil
		}
		return nil, err
	}
	return rules, nil
}

func saveApprovalRules(ctx context.Context, kv store.KVJSONStore, rules map[string]orchtypes.RuleDecision) error {
	return kv.Put(ctx, keyToolApprovalRules, rules)
}

func saveSessionRecord(ctx context.Context, kv store.KVJSONStore, rec sessionRecord) error {
	return kv.Put(ctx, rec.SessionID, rec)
}
