package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aretw0/stepform/pkg/adapters/file"
	"github.com/aretw0/stepform/pkg/adapters/memory"
	"github.com/aretw0/stepform/pkg/adapters/redis"
	"github.com/aretw0/stepform/pkg/persistence/middleware"
	"github.com/aretw0/stepform/pkg/ports"
	"github.com/aretw0/stepform/pkg/session"
)

// Store backends accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// StoreOptions selects and decorates the session store.
type StoreOptions struct {
	Kind      string
	Dir       string
	RedisAddr string
	// Mask lists control path patterns whose values are redacted at rest.
	Mask []string
}

// DefaultSessionDir is where the file store keeps snapshots.
var DefaultSessionDir = filepath.Join(".stepform", "sessions")

// openStore builds the configured store, wrapped with PII masking when
// patterns are given and with encryption when a key is set in the
// environment.
func openStore(opts StoreOptions) (ports.SessionStore, []session.Option, error) {
	var (
		store   ports.SessionStore
		mgrOpts []session.Option
	)
	switch strings.ToLower(opts.Kind) {
	case "", StoreFile:
		dir := opts.Dir
		if dir == "" {
			dir = DefaultSessionDir
		}
		store = file.New(dir)
	case StoreMemory:
		store = memory.NewStore()
	case StoreRedis:
		if opts.RedisAddr == "" {
			return nil, nil, fmt.Errorf("--redis-addr is required with --store=redis")
		}
		rs := redis.New(opts.RedisAddr)
		if err := rs.Client().Ping(context.Background()).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.RedisAddr, err)
		}
		store = rs
		mgrOpts = append(mgrOpts, session.WithLocker(redis.NewLocker(rs.Client(), redis.DefaultPrefix)))
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want memory, file or redis)", opts.Kind)
	}

	var mws []middleware.Middleware
	for _, p := range opts.Mask {
		if _, err := regexp.Compile(p); err != nil {
			return nil, nil, fmt.Errorf("invalid --mask pattern %q: %w", p, err)
		}
	}
	if len(opts.Mask) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(opts.Mask))
	}
	cfg, ok, err := middleware.ConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	if ok {
		mws = append(mws, middleware.NewEncryptionMiddleware(cfg))
	}
	return middleware.Chain(store, mws...), mgrOpts, nil
}

// NewManager opens the store described by opts and wraps it in a session
// manager.
func NewManager(opts StoreOptions, logger *slog.Logger) (*session.Manager, error) {
	store, mgrOpts, err := openStore(opts)
	if err != nil {
		return nil, err
	}
	mgrOpts = append(mgrOpts, session.WithLogger(logger))
	return session.NewManager(store, mgrOpts...), nil
}
