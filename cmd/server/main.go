// Command server runs the embermoo world: it loads configuration, restores
// (or creates) the object database, starts the scheduler and autosave
// loops, and listens for player connections.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"embermoo/internal/config"
	"embermoo/internal/engine"
	"embermoo/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration file")
	flag.Parse()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("failed to load configuration", "error", err)
	}

	world := engine.NewWorld(log)
	if err := world.Load(cfg.Server.DBFile); err != nil {
		log.Errorw("failed to load database, starting fresh", "error", err)
	}

	go world.Game.Run()
	go autosave(world, cfg.Server.DBFile, time.Duration(cfg.Server.AutosavePeriod)*time.Second, log)

	server := transport.New(cfg.Server, world, log)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Infow("shutdown signal received")
		world.Senders.Broadcast("The server is shutting down.")
		if err := world.Dump(cfg.Server.DBFile); err != nil {
			log.Errorw("final dump failed", "error", err)
		}
		server.Shutdown()
		world.Game.Stop()
		os.Exit(0)
	}()

	if err := server.ListenAndServe(); err != nil {
		log.Fatalw("server exited", "error", err)
	}
}

// autosave implements §4.11: sleep for the configured period, dump, and
// broadcast a notice if any sessions are live. Failures are logged and the
// loop continues.
func autosave(world *engine.World, dbFile string, period time.Duration, log *zap.SugaredLogger) {
	if period <= 0 {
		return
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		if err := world.Dump(dbFile); err != nil {
			log.Errorw("autosave failed", "error", err)
			continue
		}
		world.Senders.Broadcast("The world has been saved.")
	}
}
