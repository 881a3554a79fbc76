// SPDX-License-Identifier: MIT

// Package redis provides a Redis-backed session storage backend. State and
// vars survive restarts; the session lock stays process-local (the runtime
// assumes a single process owns a session's lock at a time).
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brotherdetjr/puremvc/internal/locktable"
	"github.com/brotherdetjr/puremvc/storage"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr      string // Redis server address (host:port)
	Password  string // Redis password (optional)
	DB        int    // Redis database number
	KeyPrefix string // prefix for all session keys (defaults to "puremvc:")
}

// Storage implements core.Storage on top of a Redis client.
type Storage struct {
	client *redis.Client
	codec  storage.Codec
	tab    *locktable.Table
	prefix string
	logger zerolog.Logger
}

// New connects to Redis and verifies the connection before returning.
func New(cfg Config, codec storage.Codec, logger zerolog.Logger) (*Storage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "puremvc:"
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to Redis session storage")

	return &Storage{
		client: client,
		codec:  codec,
		tab:    locktable.New(),
		prefix: prefix,
		logger: logger,
	}, nil
}

// newWithClient wires an existing client; used by tests against miniredis.
func newWithClient(client *redis.Client, codec storage.Codec, logger zerolog.Logger) *Storage {
	return &Storage{
		client: client,
		codec:  codec,
		tab:    locktable.New(),
		prefix: "puremvc:",
		logger: logger,
	}
}

func (s *Storage) stateKey(sid string) string { return s.prefix + "state:" + sid }
func (s *Storage) varsKey(sid string) string  { return s.prefix + "vars:" + sid }

func (s *Storage) AcquireLock(ctx context.Context, sessionID string) error {
	return s.tab.Acquire(ctx, sessionID)
}

func (s *Storage) ReleaseLock(ctx context.Context, sessionID string) error {
	return s.tab.Release(sessionID)
}

func (s *Storage) Load(ctx context.Context, sessionID string) (any, map[string]any, error) {
	raw, err := s.client.Get(ctx, s.stateKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("redis get state: %w", err)
	}
	state, err := s.codec.Decode(raw)
	if err != nil {
		return nil, nil, err
	}

	var vars map[string]any
	rawVars, err := s.client.Get(ctx, s.varsKey(sessionID)).Bytes()
	switch {
	case err == redis.Nil:
	case err != nil:
		return nil, nil, fmt.Errorf("redis get vars: %w", err)
	default:
		if err := json.Unmarshal(rawVars, &vars); err != nil {
			return nil, nil, fmt.Errorf("redis decode vars: %w", err)
		}
	}
	return state, vars, nil
}

func (s *Storage) Store(ctx context.Context, sessionID string, state any, vars map[string]any) error {
	rawState, err := s.codec.Encode(state)
	if err != nil {
		return err
	}
	rawVars, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("redis encode vars: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.stateKey(sessionID), rawState, 0)
	pipe.Set(ctx, s.varsKey(sessionID), rawVars, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store session: %w", err)
	}
	return nil
}

// HealthCheck reports whether Redis is reachable.
func (s *Storage) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Storage) Close() error {
	return s.client.Close()
}
