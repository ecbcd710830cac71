// Package database opens and supervises a PostgreSQL connection pool.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/JaimeStill/image-lab/pkg/lifecycle"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotReady is returned by Ping before the startup ping has succeeded.
var ErrNotReady = errors.New("database not ready")

// System owns the connection pool and ties it to the service lifecycle.
type System interface {
	// Connection returns the pool. It is valid once startup completes.
	Connection() *sql.DB

	// Ping verifies the pool can reach the server.
	Ping(ctx context.Context) error

	// Start registers the startup ping and the shutdown close.
	Start(lc *lifecycle.Coordinator) error
}

type postgres struct {
	db     *sql.DB
	cfg    *Config
	ready  atomic.Bool
	logger *slog.Logger
}

// New opens a pgx-backed pool configured from cfg. No connection is made
// until Start runs its startup hook.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &postgres{
		db:     db,
		cfg:    cfg,
		logger: logger.With("system", "database"),
	}, nil
}

func (p *postgres) Connection() *sql.DB {
	return p.db
}

func (p *postgres) Ping(ctx context.Context) error {
	if !p.ready.Load() {
		return ErrNotReady
	}
	return p.db.PingContext(ctx)
}

func (p *postgres) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting database system", "host", p.cfg.Host, "name", p.cfg.Name)

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), p.cfg.ConnTimeoutDuration())
		defer cancel()

		if err := p.db.PingContext(ctx); err != nil {
			p.logger.Error("database ping failed", "error", err)
			return
		}

		p.ready.Store(true)
		p.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		p.ready.Store(false)

		if err := p.db.Close(); err != nil {
			p.logger.Error("database close failed", "error", err)
			return
		}
		p.logger.Info("database connection closed")
	})

	return nil
}
