package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/chainquery-labs/blockchain-data-agent/internal/agent"
	"github.com/chainquery-labs/blockchain-data-agent/internal/mcptool"
)

const (
	shutdownTimeout        = 10 * time.Second
	defaultReadHeaderTmout = 10 * time.Second
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	shutdownTracing := setupTracing(ctx, cfg, log)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	var loadOpts []func(*config.LoadOptions) error
	if cfg.AWSRegion != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	tools, err := mcptool.Connect(ctx, mcptool.Config{
		Command: cfg.MCPCommand,
		Args:    cfg.MCPArgs,
	})
	if err != nil {
		return fmt.Errorf("connect mcp server: %w", err)
	}
	defer func() { _ = tools.Close() }()
	log.Info("mcp tools discovered", "tools", tools.ToolNames())

	model := agent.NewBedrockModel(awsCfg, agent.SystemPrompt, agent.ModelConfig{
		ModelID:     cfg.ModelID,
		Temperature: agent.DefaultTemperature,
		TopP:        agent.DefaultTopP,
		MaxTokens:   cfg.MaxTokens,
	})

	srv := &agentServer{
		agent: agent.New(model, tools),
		log:   log,
	}

	healthH := newHealthHandler()
	mux := buildMux(srv, healthH)

	addr := fmt.Sprintf(":%d", cfg.Port)
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Info("listening", "addr", ln.Addr().String(), "version", version)

	return runWithShutdown(log, ln, mux, healthH)
}

// runWithShutdown starts the HTTP server and handles graceful shutdown on
// SIGTERM/SIGINT.
func runWithShutdown(log *slog.Logger, ln net.Listener, mux *http.ServeMux, healthH *healthHandler) error {
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: defaultReadHeaderTmout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	healthH.setUnhealthy()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
