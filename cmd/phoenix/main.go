package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/config"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	scenePath := flag.String("scene", "", "scene to load, overrides the config")
	profileMode := flag.String("profile", "", "write a cpu or mem profile to the working directory")
	flag.Parse()

	stopProfile := func() {}
	switch *profileMode {
	case "":
	case "cpu":
		stopProfile = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop
	case "mem":
		stopProfile = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop
	default:
		fmt.Fprintf(os.Stderr, "phoenix: unknown profile mode %q\n", *profileMode)
		os.Exit(2)
	}

	code := 0
	if err := run(*configPath, *scenePath); err != nil {
		fmt.Fprintln(os.Stderr, "phoenix:", err)
		code = 1
	}
	stopProfile()
	os.Exit(code)
}

func run(configPath, scenePath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if scenePath != "" {
		cfg.Scene = scenePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := injector.InitializeEngine(cfg)
	if err != nil {
		return err
	}
	logger := log.Provide()
	defer func() { _ = logger.Sync() }()
	defer func() {
		if err := e.Close(); err != nil {
			logger.Warn("engine close failed", log.Error(err))
		}
	}()

	if cfg.Scene != "" {
		if _, err := e.LoadScene(cfg.Scene); err != nil {
			return err
		}
	}

	if cfg.Console.Enabled {
		console := injector.InitializeConsole(cfg, e)
		if err := console.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := console.Stop(shutdownCtx); err != nil {
				logger.Warn("console stop failed", log.Error(err))
			}
		}()
	}

	return e.Run(ctx)
}
