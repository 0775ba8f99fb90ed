package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/streamlyhq/streamly/internal/gateway"
	"github.com/streamlyhq/streamly/internal/repositories"
	"github.com/streamlyhq/streamly/internal/session"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
	"github.com/streamlyhq/streamly/internal/tasks"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	stateDir, err := shared.StateDir()
	if err != nil {
		logger.Fatalf("failed to prepare state directory: %v", err)
	}

	tokens := session.NewTokenStore(stateDir)
	if err := tokens.Load(); err != nil {
		logger.Warn("discarding unreadable credentials", "error", err)
		tokens.Clear()
	}

	gw, err := gateway.New(gateway.Opts{
		BaseURL:   config.API.BaseURL,
		Tokens:    tokens,
		Logger:    logger,
		RateLimit: config.API.RateLimit,
		Timeout:   time.Duration(config.API.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatalf("failed to create gateway: %v", err)
	}

	authClient := streamly.NewAuthClient(gw)
	videoClient := streamly.NewVideoClient(gw)
	adminClient := streamly.NewAdminClient(gw)
	requestClient := streamly.NewUploaderRequestClient(gw)

	broadcast := session.NewBroadcaster(stateDir, logger)
	manager := session.NewManager(authClient, tokens, config.Auth, broadcast, logger)
	defer manager.Close()

	gw.SetRenewer(manager)
	gw.SetExpiredHook(func() {
		logger.Warn("session expired, log in again")
		manager.Expire()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := broadcast.Watch(ctx, manager.Expire); err != nil {
		logger.Warn("logout broadcasts will not be observed", "error", err)
	}

	var engine *tasks.VideoEngine
	dbPath, err := config.Database.ResolvedPath()
	if err != nil {
		dbPath = ":memory:"
	}
	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		logger.Warn("local cache unavailable", "error", err)
		engine = tasks.NewVideoEngine(videoClient, requestClient, nil, nil, logger)
	} else {
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		engine = tasks.NewVideoEngine(videoClient, requestClient,
			repositories.NewVideoCacheRepository(db),
			repositories.NewWatchHistoryRepository(db), logger)
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Gateway:  gw,
		Auth:     authClient,
		Videos:   videoClient,
		Admin:    adminClient,
		Requests: requestClient,
		Session:  manager,
		Engine:   engine,
		DB:       db,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "streamly",
		Usage:    "Browse, watch, and publish videos on Streamly from the terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
