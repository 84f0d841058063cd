package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/milk9111/tractorbeam/config"
	"github.com/milk9111/tractorbeam/engine"
	"github.com/milk9111/tractorbeam/levels"
	"github.com/milk9111/tractorbeam/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := config.LoadEnvFile(flags.EnvFile); err != nil {
		return err
	}
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	flags.Apply(&cfg)
	if err := cfg.Finalize(); err != nil {
		return err
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	eng, err := engine.New(engine.Options{Tuning: cfg.Tuning, Logger: log.Named("engine")})
	if err != nil {
		return err
	}

	chat, err := server.NewChatTrigger(cfg.Scripts.Chat)
	if err != nil {
		return err
	}

	var watcher *levels.Watcher
	if cfg.Levels.Watch {
		if err := os.MkdirAll(cfg.Levels.Dir, 0o755); err != nil {
			return err
		}
		watcher, err = levels.NewWatcher(cfg.Levels.Dir)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	hub := server.NewHub(server.Options{
		Engine:         eng,
		Store:          levels.NewStore(cfg.Levels.Dir),
		Logger:         log.Named("server"),
		Chat:           chat,
		Watcher:        watcher,
		TickHz:         cfg.Server.TickHz,
		BroadcastHz:    cfg.Server.BroadcastHz,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err := hub.ChangeLevel(cfg.Levels.Start); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           hub.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("level", cfg.Levels.Start))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	loopDone := make(chan error, 1)
	go func() { loopDone <- hub.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		stop()
		<-loopDone
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return <-loopDone
}
