// Command scenefilterd runs the SceneFilter daemon: the segment store,
// the catalog service, and the local HTTP JSON API.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"scenefilter/internal/config"
	"scenefilter/internal/daemon"
	"scenefilter/internal/logging"
	"scenefilter/internal/segmentdb"
	"scenefilter/internal/store"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open segment store", slog.String("error", err.Error()))
		return
	}

	catalog := segmentdb.New(cfg, logger)

	d, err := daemon.New(cfg, st, catalog, logger)
	if err != nil {
		logger.Error("create daemon", slog.String("error", err.Error()))
		_ = st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", slog.String("error", err.Error()))
		return
	}

	<-ctx.Done()
	logger.Info("scenefilterd shutting down")
}
