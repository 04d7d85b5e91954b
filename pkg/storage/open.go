package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/profiles"
	"github.com/platinummonkey/userdeck/pkg/storage/sqlstore"
)

// Backend is an opened profile store. Conns is nil for the memory backend.
type Backend struct {
	Name  string
	Store profiles.Store
	Conns *sqlstore.ConnectionManager
}

// Open connects the configured backend and bootstraps its schema
func Open(ctx context.Context, cfg Config, logger *observability.Logger) (*Backend, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return &Backend{Name: TypeMemory, Store: profiles.NewMemoryStore()}, nil
	case TypePostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend requires a connection URL")
		}
		return openSQL(ctx, TypePostgres, sqlstore.ConnectionConfig{
			Dialect:     sqlstore.Postgres,
			PrimaryURL:  cfg.PostgresURL,
			ReplicaURLs: cfg.PostgresReplicaURLs,
			MaxConns:    cfg.PostgresMaxConns,
			MinConns:    cfg.PostgresMinConns,
			Timeout:     cfg.PostgresTimeout,
		}, logger)
	case TypeSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = DefaultConfig().SQLitePath
		}
		return openSQL(ctx, TypeSQLite, sqlstore.ConnectionConfig{
			Dialect:    sqlstore.SQLite,
			PrimaryURL: path,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func openSQL(ctx context.Context, name string, cc sqlstore.ConnectionConfig, logger *observability.Logger) (*Backend, error) {
	conns, err := sqlstore.NewConnectionManager(cc, logger)
	if err != nil {
		return nil, err
	}
	store := sqlstore.New(conns)
	if err := store.Bootstrap(ctx); err != nil {
		conns.Close()
		return nil, fmt.Errorf("failed to bootstrap %s schema: %w", name, err)
	}
	return &Backend{Name: name, Store: store, Conns: conns}, nil
}

// Primary returns the primary SQL pool, or nil for the memory backend
func (b *Backend) Primary() *sql.DB {
	if b.Conns == nil {
		return nil
	}
	return b.Conns.Primary()
}

// Close releases the store and any connections
func (b *Backend) Close() error {
	return b.Store.Close()
}
