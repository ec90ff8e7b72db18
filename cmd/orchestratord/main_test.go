package main

import "testing"

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	root := buildRootCmd()

	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"serve", "office", "panel"} {
		if !names[want] {
			t.Errorf("expected root command to include subcommand %q, got %v", want, names)
		}
	}
}

func TestOfficeCmdIncludesFullCommandSurface(t *testing.T) {
	office := buildOfficeCmd()
	names := make(map[string]bool)
	for _, sub := range office.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"start", "pause", "resume", "stop", "reset", "approve-plan", "reject-plan", "inject", "respond", "status"} {
		if !names[want] {
			t.Errorf("expected office command to include subcommand %q, got %v", want, names)
		}
	}
}

func TestPanelCmdIncludesFullCommandSurface(t *testing.T) {
	panel := buildPanelCmd()
	names := make(map[string]bool)
	for _, sub := range panel.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"start", "ask", "approve-and-start", "reject-plan", "pause", "resume", "stop", "reset", "status"} {
		if !names[want] {
			t.Errorf("expected panel command to include subcommand %q, got %v", want, names)
		}
	}
}
