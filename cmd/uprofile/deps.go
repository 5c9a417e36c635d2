// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/account/postgres"
	"github.com/Imfractical/uprofile/internal/config"
	"github.com/Imfractical/uprofile/internal/observability"
	"github.com/Imfractical/uprofile/internal/password"
	"github.com/Imfractical/uprofile/internal/store"
)

// Deps contains injectable dependencies for the commands.
// Nil fields use their default implementations.
type Deps struct {
	// BackendFactory opens the repositories.
	// Default: postgresBackend
	BackendFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error)

	// MigratorFactory opens a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory binds the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// Hasher hashes credentials.
	// Default: account.NewArgon2idHasher
	Hasher account.PasswordHasher
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.BackendFactory == nil {
		out.BackendFactory = postgresBackend
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	if out.Hasher == nil {
		out.Hasher = account.NewArgon2idHasher()
	}
	return &out
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// Backend is the storage the services run on.
type Backend struct {
	Accounts   account.AccountRepository
	Profiles   account.ProfileRepository
	Sessions   account.SessionRepository
	Resets     account.PasswordResetRepository
	Transactor account.Transactor
	// Ready reports whether storage is reachable.
	Ready func() bool
	Close func()
}

func postgresBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	databaseURL, err := getDatabaseURL(cfg)
	if err != nil {
		return nil, err
	}
	opts := store.DefaultConnectOptions()
	opts.Retries = cfg.Database.ConnectRetries
	if cfg.Database.ConnectBackoff > 0 {
		opts.BaseDelay = cfg.Database.ConnectBackoff
	}
	opts.Logger = logger

	pool, err := store.Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Accounts:   postgres.NewAccountRepository(pool),
		Profiles:   postgres.NewProfileRepository(pool),
		Sessions:   postgres.NewSessionRepository(pool),
		Resets:     postgres.NewPasswordResetRepository(pool),
		Transactor: postgres.NewTransactor(pool),
		Ready: func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx) == nil
		},
		Close: pool.Close,
	}, nil
}

func getDatabaseURL(cfg *config.Config) (string, error) {
	if cfg.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").
			With("key", "database.url").
			Errorf("database URL is required (database.url, DATABASE_URL or --database-url)")
	}
	return cfg.Database.URL, nil
}

// services are the account services wired to one backend.
type services struct {
	accounts *account.Service
	resets   *account.PasswordResetService
	profiles *account.ProfileService
}

func newServices(b *Backend, cfg *config.Config, hasher account.PasswordHasher, logger *slog.Logger, recorder account.Recorder) (*services, error) {
	rules, err := password.NewRuleSet(cfg.PasswordPolicy())
	if err != nil {
		return nil, err
	}
	opts := []account.Option{
		account.WithLogger(logger),
		account.WithAgePolicy(cfg.AgePolicy()),
		account.WithLockoutPolicy(cfg.LockoutPolicy()),
		account.WithSessionTTL(cfg.Session.TTL),
	}
	if recorder != nil {
		opts = append(opts, account.WithRecorder(recorder))
	}

	accounts, err := account.NewService(account.Dependencies{
		Accounts:   b.Accounts,
		Profiles:   b.Profiles,
		Sessions:   b.Sessions,
		Hasher:     hasher,
		Transactor: b.Transactor,
		Rules:      rules,
	}, opts...)
	if err != nil {
		return nil, err
	}
	resets, err := account.NewPasswordResetService(account.ResetDependencies{
		Accounts:   b.Accounts,
		Sessions:   b.Sessions,
		Resets:     b.Resets,
		Hasher:     hasher,
		Transactor: b.Transactor,
		Rules:      rules,
		TTL:        cfg.Reset.TTL,
	}, opts...)
	if err != nil {
		return nil, err
	}
	profiles, err := account.NewProfileService(b.Accounts, b.Profiles, b.Transactor, opts...)
	if err != nil {
		return nil, err
	}
	return &services{accounts: accounts, resets: resets, profiles: profiles}, nil
}

// openServices loads the backend and wires the services for an admin
// command. The caller must call the returned close function.
func openServices(ctx context.Context, deps *Deps, cfg *config.Config, logger *slog.Logger) (*services, func(), error) {
	backend, err := deps.BackendFactory(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	svcs, err := newServices(backend, cfg, deps.Hasher, logger, nil)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return svcs, backend.Close, nil
}
