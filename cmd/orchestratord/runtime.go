package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corerun/orchestrator/internal/approval"
	"github.com/corerun/orchestrator/internal/chatclient"
	"github.com/corerun/orchestrator/internal/chatclient/anthropicadapter"
	"github.com/corerun/orchestrator/internal/countdown"
	"github.com/corerun/orchestrator/internal/eventbus"
	"github.com/corerun/orchestrator/internal/eventlog"
	"github.com/corerun/orchestrator/internal/observability"
	"github.com/corerun/orchestrator/internal/office"
	"github.com/corerun/orchestrator/internal/orchtypes"
	"github.com/corerun/orchestrator/internal/panel"
	"github.com/corerun/orchestrator/internal/panel/moderator"
	"github.com/corerun/orchestrator/internal/panel/zombie"
	"github.com/corerun/orchestrator/internal/pool"
	"github.com/corerun/orchestrator/internal/runtimeconfig"
	"github.com/corerun/orchestrator/internal/store"
)

// Runtime holds every long-lived component a single orchestratord process
// owns. Exactly one Runtime is constructed per "serve" invocation; the
// office/panel CLI subcommands never build one themselves, they talk to a
// running serve process over HTTP (grounded in the teacher's cmd/nexus
// api_client.go split between a serving process and thin client subcommands).
type Runtime struct {
	Config *runtimeconfig.Config
	Logger *slog.Logger

	ChatClient chatclient.ChatClient
	Store      store.KVJSONStore
	Broker     *approval.Broker
	Metrics    *observability.Metrics
	Tracer     *observability.Tracer

	Bus      *eventbus.Bus
	EventLog *eventlog.Log

	Office *office.Manager
	Panel  *panel.Manager
	Pool   *pool.Pool

	zombie         *zombie.Watcher
	shutdownTracer func(context.Context) error
}

// buildRuntime wires every component named in cfg into a running Runtime. It
// never falls back to a stub ChatClient: a misconfigured provider fails
// loudly at startup rather than silently degrading into a no-op.
func buildRuntime(cfg *runtimeconfig.Config, logger *slog.Logger) (*Runtime, error) {
	chatClient, err := buildChatClient(cfg.ChatClient, logger)
	if err != nil {
		return nil, fmt.Errorf("build chat client: %w", err)
	}

	kv, err := buildStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}

	broker := approval.New(
		orchtypes.ApprovalUIMode(cfg.Approval.UIMode),
		time.Duration(cfg.Approval.InlineTimeoutSeconds)*time.Second,
		time.Duration(cfg.Approval.BothQuickActionSeconds)*time.Second,
		logger,
	)

	metrics := observability.NewMetrics()
	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:  "orchestratord",
		Endpoint:     cfg.Observability.TraceEndpoint,
		SamplingRate: cfg.Observability.TraceSampling,
	})

	bus := eventbus.New(logger)
	evLog := eventlog.New()
	go func() {
		sub, cancel := bus.Subscribe(256)
		defer cancel()
		for e := range sub {
			evLog.Append(e)
		}
	}()

	assistantPool := pool.New(chatClient, logger)
	scheduler := countdown.New(nil, logger)
	officeMgr := office.New(chatClient, assistantPool, scheduler, bus, evLog, logger)

	prohibited, err := buildProhibitedMatchers()
	if err != nil {
		return nil, fmt.Errorf("build panel policy: %w", err)
	}
	panelMgr := panel.New(chatClient, bus, evLog, logger, prohibited, maxTokensPerPanelTurn)
	zombieWatcher := zombie.New(panelMgr, panelMgr.Stop, defaultPanelMaxDuration, 0, logger)

	r := &Runtime{
		Config:         cfg,
		Logger:         logger,
		ChatClient:     chatClient,
		Store:          kv,
		Broker:         broker,
		Metrics:        metrics,
		Tracer:         tracer,
		Bus:            bus,
		EventLog:       evLog,
		Office:         officeMgr,
		Panel:          panelMgr,
		Pool:           assistantPool,
		zombie:         zombieWatcher,
		shutdownTracer: shutdownTracer,
	}
	r.wireApprovals()
	return r, nil
}

// defaultPanelMaxDuration is the zombie watcher's stuck-discussion threshold.
// It matches PanelSettings.MaxDiscussionDuration's own default (§4.11).
// PanelSettings.MaxDurationMinutes is not consulted: the watcher's threshold
// is fixed for the process's lifetime rather than per Panel.Start call.
const defaultPanelMaxDuration = 60 * time.Minute

// RunZombieWatcher blocks, running the Panel zombie cleanup watcher until ctx
// is cancelled. Call it in its own goroutine from runServe.
func (r *Runtime) RunZombieWatcher(ctx context.Context) {
	r.zombie.Run(ctx)
}

// maxTokensPerPanelTurn bounds a single panelist turn's moderator validation
// (§4.7's content-policy gate); it is intentionally generous since token
// accounting proper lives in PanelSettings.MaxTotalTokens.
const maxTokensPerPanelTurn = 4000

func buildChatClient(cfg runtimeconfig.ChatClientConfig, logger *slog.Logger) (chatclient.ChatClient, error) {
	switch cfg.Provider {
	case "", "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("chat_client.api_key is required for provider %q", cfg.Provider)
		}
		return anthropicadapter.New(anthropicadapter.Config{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.DefaultModel,
			MaxTokens:    cfg.MaxTokens,
			Logger:       logger,
		})
	default:
		return nil, fmt.Errorf("unknown chat_client.provider %q", cfg.Provider)
	}
}

func buildStore(cfg runtimeconfig.StoreConfig) (store.KVJSONStore, error) {
	switch cfg.Backend {
	case "", "file":
		return store.NewFileStore(cfg.Dir), nil
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store.backend %q", cfg.Backend)
	}
}

// buildProhibitedMatchers returns the moderator's base content-policy
// patterns. There is no configuration surface for these yet, so the set is
// currently empty - real deployments can extend runtimeconfig with a
// patterns list without changing this wiring point.
func buildProhibitedMatchers() ([]*moderator.RegexMatcher, error) {
	return nil, nil
}

// wireApprovals is the ChatClient.ToolEvents() channel's one and only reader.
// It demuxes every event to both consumers that need it: the assistant
// pool's per-task tool-trace collectors (§4.6) via Pool.Dispatch, and the
// approval Broker for ToolStart events (§4.2). Routing both from a single
// reader avoids starving one consumer of events the other already drained.
func (r *Runtime) wireApprovals() {
	go func() {
		for e := range r.ChatClient.ToolEvents() {
			r.Pool.Dispatch(e)

			if e.Kind != chatclient.EventToolStart {
				continue
			}
			req := orchtypes.ToolApprovalRequest{
				ID:        e.ToolCallID,
				ToolName:  e.ToolName,
				SessionID: e.SessionID,
			}
			resp, err := r.Broker.RequestApproval(context.Background(), req)
			if err != nil {
				r.Logger.Warn("tool approval request failed", "tool", e.ToolName, "error", err)
				r.Metrics.RecordToolApproval("error")
				continue
			}
			r.Broker.RecordDecision(req, resp)
			outcome := "denied"
			if resp.Approved {
				outcome = "approved"
			}
			r.Metrics.RecordToolApproval(outcome)
		}
	}()
}

// Close shuts down every background component. It does not stop an
// in-flight Office or Panel run; callers that need a clean stop should call
// Office.Stop/Panel.Stop first.
func (r *Runtime) Close(ctx context.Context) error {
	r.Bus.Close()
	if r.shutdownTracer != nil {
		return r.shutdownTracer(ctx)
	}
	return nil
}
