// Package runtimeconfig implements the orchestrator's ambient configuration
// layer (SPEC_FULL.md §2.1): a YAML file decoded into Go structs, loaded with
// case-insensitive key tolerance and safe defaulting, and never failing
// startup on a missing or unreadable file. Grounded in the teacher's
// internal/config.Load shape (os.ExpandEnv + yaml.v3 decode + applyDefaults),
// relaxed from the teacher's strict decoder.KnownFields(true) posture since
// this orchestrator has no plugin ecosystem of third-party config blocks to
// guard against typos in.
package runtimeconfig

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// Config is the orchestrator's top-level runtime configuration.
type Config struct {
	Office        orchtypes.OfficeConfig  `yaml:"office"`
	Panel         orchtypes.PanelSettings `yaml:"panel"`
	Approval      ApprovalConfig          `yaml:"approval"`
	Store         StoreConfig             `yaml:"store"`
	Logging       LoggingConfig           `yaml:"logging"`
	Observability ObservabilityConfig     `yaml:"observability"`
	ChatClient    ChatClientConfig        `yaml:"chat_client"`
}

// ChatClientConfig selects and configures the ChatClient implementation
// cmd/orchestratord wires in at startup (§2.2's reference adapter).
type ChatClientConfig struct {
	// Provider selects "anthropic" (default).
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
	MaxTokens    int64  `yaml:"max_tokens"`
}

// ApprovalConfig configures the Tool Approval Broker's UI resolution
// strategy (§4.2).
type ApprovalConfig struct {
	UIMode         string `yaml:"ui_mode"` // "Modal" | "Inline" | "Both"
	InlineTimeoutSeconds int `yaml:"inline_timeout_seconds"`
	BothQuickActionSeconds int `yaml:"both_quick_action_seconds"`
}

// StoreConfig configures where settings/session/rule-cache JSON blobs live.
type StoreConfig struct {
	// Backend selects "file" (default) or "memory".
	Backend string `yaml:"backend"`
	// Dir is the FileStore root directory, used when Backend is "file".
	Dir string `yaml:"dir"`
}

// LoggingConfig configures log/slog's level and format, matching the
// teacher's internal/config LoggingConfig shape.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// ObservabilityConfig configures the Prometheus/OTLP exporters.
type ObservabilityConfig struct {
	MetricsEnabled bool    `yaml:"metrics_enabled"`
	TraceEndpoint  string  `yaml:"trace_endpoint"`
	TraceSampling  float64 `yaml:"trace_sampling_rate"`
}

// Load reads and decodes path into a Config. A missing file, or any
// read/parse failure, yields Defaults() rather than an error: the
// orchestrator must be able to start with no config file at all (matches the
// teacher's "never fail startup" posture, relaxed further since this spec
// has no required fields analogous to the teacher's auth/database blocks).
func Load(path string) *Config {
	cfg := Defaults()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		return cfg
	}
	normalized := lowercaseKeysDeep(raw)

	renormalized, err := yaml.Marshal(normalized)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(renormalized, cfg); err != nil {
		return Defaults()
	}

	cfg.applyDefaults()
	return cfg
}

// Defaults returns a Config with every field at its documented default.
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	c.Office.Normalize()
	c.Panel.Normalize()

	if c.Approval.UIMode == "" {
		c.Approval.UIMode = string(orchtypes.UIModal)
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = filepath.Join(".", "orchestrator-state")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Observability.TraceSampling == 0 {
		c.Observability.TraceSampling = 1.0
	}
	if c.ChatClient.Provider == "" {
		c.ChatClient.Provider = "anthropic"
	}
}

// lowercaseKeysDeep recursively lower-cases every map key so YAML documents
// that spell the documented snake_case keys in any case (max_panelists,
// MAX_PANELISTS, Max_Panelists) all decode the same way against yaml.v3's
// exact tag matching. A camelCase key (MaxPanelists) lower-cases to
// maxpanelists, which matches no tag and is ignored.
func lowercaseKeysDeep(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[strings.ToLower(k)] = lowercaseKeysDeep(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = lowercaseKeysDeep(sub)
		}
		return out
	default:
		return v
	}
}
