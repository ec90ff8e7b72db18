package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corerun/orchestrator/internal/orchtypes"
)

// buildOfficeCmd builds the "office" command group: thin HTTP clients
// against a running "orchestratord serve" process's /office/* routes.
func buildOfficeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "office",
		Short: "Control the Office manager on a running orchestratord serve process",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "orchestratord serve control API address")

	cmd.AddCommand(
		buildOfficeStartCmd(&addr),
		buildOfficeSimpleCmd(&addr, "pause", "/office/pause"),
		buildOfficeSimpleCmd(&addr, "resume", "/office/resume"),
		buildOfficeSimpleCmd(&addr, "stop", "/office/stop"),
		buildOfficeSimpleCmd(&addr, "reset", "/office/reset"),
		buildOfficeSimpleCmd(&addr, "approve-plan", "/office/approve-plan"),
		buildOfficeRejectPlanCmd(&addr),
		buildOfficeInjectCmd(&addr),
		buildOfficeRespondCmd(&addr),
		buildOfficeStatusCmd(&addr),
	)
	return cmd
}

func buildOfficeStartCmd(addr *string) *cobra.Command {
	var (
		objective            string
		workspacePath        string
		checkIntervalMinutes int
		maxAssistants        int
		requirePlanApproval  bool
		managerModel         string
		assistantModel       string
		restScheduleCron     string
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start an Office run",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := orchtypes.OfficeConfig{
				Objective:            objective,
				WorkspacePath:        workspacePath,
				CheckIntervalMinutes: checkIntervalMinutes,
				MaxAssistants:        maxAssistants,
				RequirePlanApproval:  requirePlanApproval,
				ManagerModel:         managerModel,
				AssistantModel:       assistantModel,
				RestScheduleCron:     restScheduleCron,
			}
			var out officeStatusResponse
			if err := newAPIClient(*addr).postJSON(cmd.Context(), "/office/start", config, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&objective, "objective", "", "Office run objective")
	cmd.Flags().StringVar(&workspacePath, "workspace", "", "workspace path assistants operate in")
	cmd.Flags().IntVar(&checkIntervalMinutes, "check-interval-minutes", 15, "rest interval between iterations")
	cmd.Flags().IntVar(&maxAssistants, "max-assistants", 1, "max concurrent assistant tasks")
	cmd.Flags().BoolVar(&requirePlanApproval, "require-plan-approval", false, "require manual plan approval before executing")
	cmd.Flags().StringVar(&managerModel, "manager-model", "", "model used for planning/aggregation")
	cmd.Flags().StringVar(&assistantModel, "assistant-model", "", "model used for assistant tasks")
	cmd.Flags().StringVar(&restScheduleCron, "rest-schedule-cron", "", "five-field cron expression overriding check-interval-minutes")
	return cmd
}

func buildOfficeSimpleCmd(addr *string, use, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("POST %s on the running Office manager", path),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out officeStatusResponse
			if err := newAPIClient(*addr).postJSON(cmd.Context(), path, struct{}{}, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func buildOfficeRejectPlanCmd(addr *string) *cobra.Command {
	var feedback string
	cmd := &cobra.Command{
		Use:   "reject-plan",
		Short: "Reject the current plan, optionally with feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out officeStatusResponse
			body := struct {
				Feedback string `json:"feedback"`
			}{Feedback: feedback}
			if err := newAPIClient(*addr).postJSON(cmd.Context(), "/office/reject-plan", body, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&feedback, "feedback", "", "feedback to fold into the next plan attempt")
	return cmd
}

func buildOfficeInjectCmd(addr *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inject <text>",
		Short: "Inject an instruction into the next iteration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out officeStatusResponse
			body := struct {
				Text string `json:"text"`
			}{Text: args[0]}
			if err := newAPIClient(*addr).postJSON(cmd.Context(), "/office/inject", body, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	return cmd
}

func buildOfficeRespondCmd(addr *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "respond <answer>",
		Short: "Answer an outstanding clarification question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out officeStatusResponse
			body := struct {
				Answer string `json:"answer"`
			}{Answer: args[0]}
			if err := newAPIClient(*addr).postJSON(cmd.Context(), "/office/respond-clarification", body, &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	return cmd
}

func buildOfficeStatusCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the Office manager's current phase and iteration reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out officeStatusResponse
			if err := newAPIClient(*addr).getJSON(cmd.Context(), "/office/status", &out); err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
