package approval

import (
	"sync"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// RuleCache stores cached approval decisions keyed by (toolName, scope,
// sessionID). Once-scoped decisions are never stored (§3 rule cache key
// invariants). Global entries persist for the process lifetime; Session
// entries persist for the lifetime of the owning session only — the spec
// leaves cross-restart persistence of Session rules as an explicit
// non-requirement (§9 Open Questions), so this cache keeps Session rules
// in memory only, same as Global (both die with the process unless Global
// rules are explicitly saved via SaveRules/LoadRules).
type RuleCache struct {
	mu    sync.RWMutex
	rules map[orchtypes.RuleKey]orchtypes.RuleDecision
}

// NewRuleCache returns an empty RuleCache.
func NewRuleCache() *RuleCache {
	return &RuleCache{rules: make(map[orchtypes.RuleKey]orchtypes.RuleDecision)}
}

// Record stores a decision. Once-scoped keys are silently dropped.
func (c *RuleCache) Record(key orchtypes.RuleKey, decision orchtypes.RuleDecision) {
	if key.Scope == orchtypes.ScopeOnce {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules[key] = decision
}

// Lookup resolves the cached decision for toolName/sessionID, preferring
// Session over Global (Once is never cached, so it is never consulted here;
// §3 "lookups prefer Once > Session > Global" — Record drops Once-scoped
// decisions, so a Once answer never short-circuits a later request).
func (c *RuleCache) Lookup(toolName, sessionID string) (orchtypes.RuleDecision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if sessionID != "" {
		if d, ok := c.rules[orchtypes.RuleKey{ToolName: toolName, Scope: orchtypes.ScopeSession, SessionID: sessionID}]; ok {
			return d, true
		}
	}
	if d, ok := c.rules[orchtypes.RuleKey{ToolName: toolName, Scope: orchtypes.ScopeGlobal}]; ok {
		return d, true
	}
	return "", false
}

// GlobalRules returns a snapshot of every Global-scoped rule, for persistence
// (§6 "tool-approval-rules.json — serialized Global rules only").
func (c *RuleCache) GlobalRules() map[string]orchtypes.RuleDecision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]orchtypes.RuleDecision)
	for k, v := range c.rules {
		if k.Scope == orchtypes.ScopeGlobal {
			out[k.ToolName] = v
		}
	}
	return out
}

// LoadGlobalRules replaces every Global-scoped rule from a persisted snapshot,
// leaving Session rules untouched.
func (c *RuleCache) LoadGlobalRules(rules map[string]orchtypes.RuleDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for tool, decision := range rules {
		c.rules[orchtypes.RuleKey{ToolName: tool, Scope: orchtypes.ScopeGlobal}] = decision
	}
}

// ClearSession removes every Session-scoped rule for sessionID, used when a
// session ends.
func (c *RuleCache) ClearSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.rules {
		if k.Scope == orchtypes.ScopeSession && k.SessionID == sessionID {
			delete(c.rules, k)
		}
	}
}
