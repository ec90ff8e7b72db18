package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// buildPanelCmd builds the "panel" command group: thin HTTP clients against
// a running "orchestratord serve" process's /panel/* routes.
func buildPanelCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Control the Panel manager on a running orchestratord serve process",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "orchestratord serve control API address")

	cmd.AddCommand(
		buildPanelStartCmd(&addr),
		buildPanelAskCmd(&addr),
		buildPanelSimpleCmd(&addr, "approve-and-start", "/panel/approve-and-start"),
		buildPanelRejectPlanCmd(&addr),
		buildPanelSimpleCmd(&addr, "pause", "/panel/pause"),
		buildPanelSimpleCmd(&addr, "resume", "/panel/resume"),
		buildPanelSimpleCmd(&addr, "stop", "/panel/stop"),
		buildPanelSimpleCmd(&addr, "reset", "/panel/reset"),
		buildPanelStatusCmd(&addr),
	)
	return cmd
}

func buildPanelStartCmd(addr *string) *cobra.Command {
	var (
		prompt               string
		primaryModel         string
		maxPanelists         int
		maxTurns             int
		convergenceThreshold int
	)
	cmd := &cobra.Command{
		Use:   "start <prompt>",
		Short: "Start a Panel discussion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt = args[0]
			config := orchtypes.PanelSettings{
				PrimaryModel:         primaryModel,
				MaxPanelists:         maxPanelists,
				MaxTurns:             maxTurns,
				ConvergenceThreshold: convergenceThreshold,
			}
			body := struct {
				Prompt string                  `json:"prompt"`
				Config orchtypes.PanelSettings `json:"config"`
			}{Prompt: prompt, Config: config}
			var out panelStatusResponse
			if err := newAPIClient(*addr).postJSON(cmd.Context(), "/panel/start", body, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&primaryModel, "primary-model", "", "model used for the moderator and synthesis")
	cmd.Flags().IntVar(&maxPanelists, "max-panelists", 2, "maximum number of panelists")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 20, "maximum discussion turns")
	cmd.Flags().IntVar(&convergenceThreshold, "convergence-threshold", 0, "heuristic convergence score threshold (0-100)")
	return cmd
}

func buildPanelAskCmd(addr *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <text>",
		Short: "Send a user message into the active Panel discussion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out panelStatusResponse
			body := struct {
				Text string `json:"text"`
			}{Text: args[0]}
			if err := newAPIClient(*addr).postJSON(cmd.Context(), "/panel/ask", body, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	return cmd
}

func buildPanelRejectPlanCmd(addr *string) *cobra.Command {
	var feedback string
	cmd := &cobra.Command{
		Use:   "reject-plan",
		Short: "Reject the discussion plan, optionally with feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out panelStatusResponse
			body := struct {
				Feedback string `json:"feedback"`
			}{Feedback: feedback}
			if err := newAPIClient(*addr).postJSON(cmd.Context(), "/panel/reject-plan", body, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&feedback, "feedback", "", "feedback to fold into the next plan attempt")
	return cmd
}

func buildPanelSimpleCmd(addr *string, use, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("POST %s on the running Panel manager", path),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out panelStatusResponse
			if err := newAPIClient(*addr).postJSON(cmd.Context(), path, struct{}{}, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func buildPanelStatusCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the Panel manager's current phase and transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out panelStatusResponse
			if err := newAPIClient(*addr).getJSON(cmd.Context(), "/panel/status", &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}
