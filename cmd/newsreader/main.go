package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/japaniel/newsreader/pkg/config"
)

func main() {
	configFlag := flag.String("config", "", "Path to YAML config (overrides CONFIG_PATH)")
	apiFlag := flag.String("api", "", "Base URL of the news service (overrides config)")
	offlineFlag := flag.Bool("offline", false, "Analyze words with the local dictionary instead of the service")
	flag.Parse()

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		cfg *config.Config
		err error
	)
	if *configFlag != "" {
		cfg, err = config.LoadFile(*configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *apiFlag != "" {
		cfg.API.BaseURL = *apiFlag
	}
	if *offlineFlag {
		cfg.Analyzer.Mode = "offline"
	}

	logger := config.NewLogger(cfg.Log)

	a, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	sh := newShell(a.reader, os.Stdout)
	if err := sh.run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		slog.Error("shell stopped", "error", err)
	}
}
