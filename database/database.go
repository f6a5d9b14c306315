package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/database/badger"
	"github.com/sagarc03/lfsgate/database/postgres"
	"github.com/sagarc03/lfsgate/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite", "postgres" or "badger"
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=sqlite postgres badger"`
	// DSN is the data source name (connection string or directory)
	DSN string `mapstructure:"dsn" yaml:"dsn" validate:"required"`
	// Tables names the objects and locks tables
	Tables lfsgate.Tables `mapstructure:"tables" yaml:"tables"`
}

// Database is a connected metadata backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() lfsgate.MetaDataRepo
	Close() error
}

// Connect opens the configured backend. It does not migrate or validate.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var db Database
	var err error

	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	case "badger":
		db, err = badger.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects, pings, migrates and validates the backend, and returns a
// ready-to-use MetaDataRepo. The returned cleanup function closes the
// connection.
func Open(ctx context.Context, cfg Config) (lfsgate.MetaDataRepo, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.GetRepo(), cleanup, nil
}
