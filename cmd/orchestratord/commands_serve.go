package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/corerun/orchestrator/internal/orchtypes"
	"github.com/corerun/orchestrator/internal/runtimeconfig"
)

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the orchestrator control server",
		Long: `Start the orchestrator control server.

The server owns the Office and Panel managers for this process, exposes a
JSON control API for the office/panel CLI subcommands, /healthz for liveness,
and /metrics for Prometheus scraping.

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	cmd.Flags().StringVar(&addr, "listen", ":8080", "address the control API and metrics endpoint bind to")

	return cmd
}

func runServe(ctx context.Context, configPath, addr string) error {
	logger := slog.Default()
	cfg := runtimeconfig.Load(configPath)

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}

	settings := loadSettings(ctx, rt.Store, orchtypes.UIModal)
	logger.Info("loaded persisted settings", "approval_ui_mode", settings.ApprovalUIMode)

	if rules, err := loadApprovalRules(ctx, rt.Store); err != nil {
		logger.Warn("failed to load tool approval rules, starting with an empty rule cache", "error", err)
	} else {
		rt.Broker.LoadRules(rules)
	}

	srv := &apiServer{rt: rt, logger: logger}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", srv.handleHealthz)
	srv.registerOfficeRoutes(mux)
	srv.registerPanelRoutes(mux)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()
	go rt.RunZombieWatcher(ctx)

	logger.Info("orchestrator control server started", "addr", addr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	logger.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := saveApprovalRules(shutdownCtx, rt.Store, rt.Broker.SaveRules()); err != nil {
		logger.Warn("failed to persist tool approval rules", "error", err)
	}
	if err := saveSettings(shutdownCtx, rt.Store, settings); err != nil {
		logger.Warn("failed to persist settings", "error", err)
	}

	if err := rt.Office.Stop(shutdownCtx); err != nil {
		logger.Warn("office stop during shutdown returned an error", "error", err)
	}
	if err := rt.Panel.Stop(shutdownCtx); err != nil {
		logger.Warn("panel stop during shutdown returned an error", "error", err)
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := rt.Close(shutdownCtx); err != nil {
		return fmt.Errorf("runtime close: %w", err)
	}

	logger.Info("orchestrator control server stopped gracefully")
	return nil
}

// apiServer exposes the Runtime's Office and Panel managers over a local
// JSON control API. Every route is a thin adapter: request decoding, a
// manager call, response encoding - no business logic lives here (§4's FSM
// guards already make every command idempotent, so handlers don't need to
// re-check phase).
type apiServer struct {
	rt     *Runtime
	logger *slog.Logger
}

func (s *apiServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
