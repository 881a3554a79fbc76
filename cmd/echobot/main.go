// SPDX-License-Identifier: MIT

// Command echobot is a demo chat daemon: each session gets greeted once,
// then every line it posts is echoed back with a running count. It shows
// the full wiring of a flow behind an HTTP ingress with durable sessions.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/brotherdetjr/puremvc/core"
	"github.com/brotherdetjr/puremvc/internal/log"
	"github.com/brotherdetjr/puremvc/source/httpsource"
	"github.com/brotherdetjr/puremvc/storage"
	"github.com/brotherdetjr/puremvc/storage/filestore"
	"github.com/brotherdetjr/puremvc/storage/memory"
	"github.com/brotherdetjr/puremvc/storage/sqlite"
)

type botConfig struct {
	Listen    string `yaml:"listen"`
	LogLevel  string `yaml:"log_level"`
	RateLimit int    `yaml:"rate_limit"`
	Workers   int64  `yaml:"workers"`
	Storage   struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`
}

func defaultConfig() botConfig {
	cfg := botConfig{
		Listen:    ":8080",
		LogLevel:  "info",
		RateLimit: 600,
		Workers:   16,
	}
	cfg.Storage.Backend = "memory"
	return cfg
}

func loadConfig(path string) (botConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func buildStorage(cfg botConfig) (core.Storage, func() error, error) {
	codec := storage.NewJSONCodec().Register(greeting{}, echoing{})
	switch cfg.Storage.Backend {
	case "", "memory":
		return memory.New(), func() error { return nil }, nil
	case "file":
		s, err := filestore.Open(cfg.Storage.Path, codec)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.Storage.Path, sqlite.DefaultConfig(), codec)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: "echobot",
	})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open session storage")
	}
	defer func() { _ = closeStore() }()

	src, err := httpsource.New(httpsource.Config{
		Decoder:   decodeMessage,
		RateLimit: cfg.RateLimit,
		Logger:    log.WithComponent("ingress"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build HTTP source")
	}

	out := newOutbox()
	pool := core.NewPool(cfg.Workers)
	flow, err := buildFlow(src, store, out, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build flow")
	}
	flow.Start()

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router(src, out, promhttp.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().
			Str("listen", cfg.Listen).
			Str("storage", cfg.Storage.Backend).
			Msg("echobot listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("executor shutdown timed out")
	}
	logger.Info().Msg("bye")
}
