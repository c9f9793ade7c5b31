package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcpexec/backend/internal/agent/providers"
	"github.com/mcpexec/backend/internal/bridge"
	"github.com/mcpexec/backend/internal/config"
	"github.com/mcpexec/backend/internal/containers"
	"github.com/mcpexec/backend/internal/execengine"
	"github.com/mcpexec/backend/internal/fileio"
	mcpclient "github.com/mcpexec/backend/internal/mcp"
	"github.com/mcpexec/backend/internal/mcpserver"
	"github.com/mcpexec/backend/internal/observability"
	"github.com/mcpexec/backend/internal/promptcache"
	"github.com/mcpexec/backend/internal/sessions"
	"github.com/mcpexec/backend/internal/skills"
)

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LoggingConfig, debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// runServe wires together every component of the execution backend and
// runs until a shutdown signal arrives.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, debug)
	appLog := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	appLog.Info(ctx, "starting execution backend", "version", version, "config", configPath)

	metrics := observability.NewMetrics()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	manager, err := containers.New(ctx, containers.Config{
		ContainerdSocket:   cfg.Container.ContainerdSocket,
		Namespace:          cfg.Container.Namespace,
		ExecutorImage:      cfg.Container.ExecutorImage,
		ToolsPath:          cfg.Container.ToolsPath,
		SkillsPath:         cfg.Container.SkillsPath,
		NamePrefix:         cfg.Container.NamePrefix,
		MemoryLimitBytes:   cfg.Container.MemoryLimitBytes,
		CPUShares:          cfg.Container.CPUShares,
		StartRetryAttempts: cfg.Container.StartRetryAttempts,
	}, logger, metrics)
	if err != nil {
		return fmt.Errorf("start container manager: %w", err)
	}
	defer manager.Close()

	if err := manager.SweepOrphans(ctx); err != nil {
		logger.Warn("orphan container sweep failed", "error", err)
	}

	execEngine := execengine.New(manager, metrics, logger)
	io := fileio.New(manager, cfg.Artifact.SizeLimitBytes, metrics, logger)
	registry := skills.NewRegistry(cfg.Container.SkillsPath, logger)
	if _, err := registry.Reload(); err != nil {
		logger.Warn("skill registry load failed", "error", err)
	}

	toolServer := mcpserver.New(mcpserver.Config{Addr: cfg.Server.ToolServerAddr}, manager, execEngine, io, registry, metrics, logger)
	if err := toolServer.Start(ctx); err != nil {
		return fmt.Errorf("start tool & prompt server: %w", err)
	}
	defer toolServer.Stop(context.Background())

	sessionStore := sessions.New(cfg.Session.Timeout())
	sessionStore.StartJanitor(ctx, cfg.Session.Timeout()/2, logger)

	promptFetcherClient, err := mcpclient.New(ctx, cfg.MCP.ServerURL, "prompt-cache", logger)
	if err != nil {
		return fmt.Errorf("connect prompt cache fetcher: %w", err)
	}
	defer promptFetcherClient.Close()

	promptCache := promptcache.New(promptFetcherClient.FetchSystemPrompt, cfg.PromptCache.TTL(), metrics, logger)

	model := providers.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL)

	agentBridge := bridge.New(cfg.LLM.AgentName, cfg.MCP.ServerURL, model, promptCache, sessionStore, logger)
	bridgeServer := bridge.NewServer(bridge.Config{Addr: cfg.Server.BridgeAddr, Model: cfg.LLM.DefaultModel}, agentBridge)
	if err := bridgeServer.Start(ctx); err != nil {
		return fmt.Errorf("start agent bridge: %w", err)
	}

	logger.Info("execution backend started",
		"tool_server_addr", cfg.Server.ToolServerAddr,
		"bridge_addr", cfg.Server.BridgeAddr,
	)

	<-ctx.Done()
	logger.Info("shutdown signal received, draining")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := bridgeServer.Stop(shutdownCtx); err != nil {
		logger.Error("agent bridge shutdown error", "error", err)
	}
	if err := manager.ReleaseAll(shutdownCtx); err != nil {
		logger.Error("container release error", "error", err)
	}

	logger.Info("execution backend stopped")
	return nil
}
