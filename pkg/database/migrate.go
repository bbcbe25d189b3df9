package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect, filesystem and logger in package globals.
var gooseMu sync.Mutex

// Migrator applies the embedded schema migrations.
type Migrator struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMigrator builds a Migrator. logger may be nil.
func NewMigrator(db *sql.DB, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, logger: logger}
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(func() error {
		if err := goose.UpContext(ctx, m.db, migrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(func() error {
		if err := goose.DownContext(ctx, m.db, migrationsDir); err != nil {
			return fmt.Errorf("rollback migration: %w", err)
		}
		return nil
	})
}

// Status logs the applied state of every migration.
func (m *Migrator) Status(ctx context.Context) error {
	return m.run(func() error {
		if err := goose.StatusContext(ctx, m.db, migrationsDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.run(func() error {
		v, err := goose.GetDBVersionContext(ctx, m.db)
		if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

func (m *Migrator) run(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(zapGooseLogger{sugar: m.logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn()
}

// zapGooseLogger adapts zap to goose.Logger. Fatalf is downgraded to an
// error log so a failed migration surfaces as a returned error.
type zapGooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapGooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

func (l zapGooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}
