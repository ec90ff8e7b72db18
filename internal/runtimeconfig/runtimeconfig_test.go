package runtimeconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if cfg.Office.MaxAssistants != 1 {
		t.Fatalf("expected default MaxAssistants of 1, got %d", cfg.Office.MaxAssistants)
	}
	if cfg.Panel.MaxPanelists != 2 {
		t.Fatalf("expected default MaxPanelists of 2, got %d", cfg.Panel.MaxPanelists)
	}
	if cfg.Store.Backend != "file" {
		t.Fatalf("expected default store backend 'file', got %q", cfg.Store.Backend)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg := Load("")
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level 'info', got %q", cfg.Logging.Level)
	}
}

func TestLoadParsesWellFormedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestrator.yaml")
	doc := `
office:
  objective: "ship the release"
  max_assistants: 4
panel:
  max_panelists: 5
  max_turns: 30
approval:
  ui_mode: "Both"
store:
  backend: "memory"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Load(path)
	if cfg.Office.Objective != "ship the release" {
		t.Fatalf("unexpected objective: %q", cfg.Office.Objective)
	}
	if cfg.Office.MaxAssistants != 4 {
		t.Fatalf("unexpected max assistants: %d", cfg.Office.MaxAssistants)
	}
	if cfg.Panel.MaxPanelists != 5 {
		t.Fatalf("unexpected max panelists: %d", cfg.Panel.MaxPanelists)
	}
	if cfg.Approval.UIMode != "Both" {
		t.Fatalf("unexpected approval UI mode: %q", cfg.Approval.UIMode)
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("unexpected store backend: %q", cfg.Store.Backend)
	}
}

func TestLoadToleratesUppercaseKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestrator.yaml")
	doc := `
OFFICE:
  MAX_ASSISTANTS: 6
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Load(path)
	if cfg.Office.MaxAssistants != 6 {
		t.Fatalf("expected uppercase keys to be tolerated, got %d", cfg.Office.MaxAssistants)
	}
}

func TestLoadUnparsableFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestrator.yaml")
	if err := os.WriteFile(path, []byte("not: [valid: yaml: at: all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Load(path)
	if cfg.Office.MaxAssistants != 1 {
		t.Fatalf("expected defaults on unparsable file, got MaxAssistants=%d", cfg.Office.MaxAssistants)
	}
}

func TestLoadDefaultsChatClientProviderToAnthropic(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if cfg.ChatClient.Provider != "anthropic" {
		t.Fatalf("expected default provider 'anthropic', got %q", cfg.ChatClient.Provider)
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("ORCH_OBJECTIVE", "env-provided objective")
	path := filepath.Join(t.TempDir(), "orchestrator.yaml")
	doc := "office:\n  objective: \"${ORCH_OBJECTIVE}\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := Load(path)
	if cfg.Office.Objective != "env-provided objective" {
		t.Fatalf("expected env var expansion, got %q", cfg.Office.Objective)
	}
}
