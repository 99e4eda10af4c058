package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type persistenceConfig struct {
	cfg core.DatabaseConfig
}

func (c persistenceConfig) GetDebug() bool { return c.cfg.Debug }

func (c persistenceConfig) GetDriver() string { return c.cfg.Driver }

func (c persistenceConfig) GetServer() string { return c.cfg.DSN }

func (c persistenceConfig) GetPingTimeout() time.Duration {
	if c.cfg.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.cfg.PingTimeout
}

func (c persistenceConfig) GetOtelIdentifier() string { return "acme-github-issues" }

// Connect opens the configured database, registers the migrations for its dialect and
// applies them. Migrations come from cfg.MigrationsDir when set, the embedded copy
// otherwise. The caller owns the returned client.
func Connect(ctx context.Context, cfg core.DatabaseConfig) (*persistence.Client, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dialect, migrationDialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlstore: database dsn is required")
	}
	cfg.Driver = driver

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{cfg: cfg}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}
	var tree fs.FS
	if dir := strings.TrimSpace(cfg.MigrationsDir); dir != "" {
		tree = os.DirFS(dir)
	}
	if err := Migrate(ctx, client, migrationDialect, tree); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Migrate registers the migrations for one dialect on client and runs them. A nil
// tree uses the embedded migrations.
func Migrate(ctx context.Context, client *persistence.Client, dialect string, tree fs.FS) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	_, err := migrations.Apply(ctx, func(_ context.Context, src migrations.Source) error {
		client.RegisterSQLMigrations(src.FS)
		return nil
	}, migrations.ForDialects(dialect), migrations.FromFS(tree))
	if err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

func dialectFor(driver string) (schema.Dialect, string, error) {
	switch driver {
	case DriverPostgres:
		return pgdialect.New(), migrations.DialectPostgres, nil
	case DriverSQLite:
		return sqlitedialect.New(), migrations.DialectSQLite, nil
	default:
		return nil, "", fmt.Errorf("sqlstore: unsupported database driver %q", driver)
	}
}

// NewDeliveryLogFromPersistence accepts a *persistence.Client or a *bun.DB.
func NewDeliveryLogFromPersistence(client any) (*DeliveryLogStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewDeliveryLogStore(db)
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
