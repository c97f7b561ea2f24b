package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"curator/db"
	"curator/internal/storage"
)

type SQLiteStorage struct {
	conn     *sql.DB
	rawItems storage.RawItemStore
	cards    storage.CardStore
	registry storage.RegistryStore
	runs     storage.RunStore
	queue    storage.QueueStore
}

var _ storage.StorageInterface = (*SQLiteStorage)(nil)

// New opens (or creates) the sqlite database at dbPath and runs the
// embedded goose migrations.
func New(dbPath string) (*SQLiteStorage, error) {
	slog.Info("initializing sqlite storage", "path", dbPath)

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", dbPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLiteStorage{
		conn:     conn,
		rawItems: newRawItemStore(conn),
		cards:    newCardStore(conn),
		registry: newRegistryStore(conn),
		runs:     newRunStore(conn),
		queue:    newQueueStore(conn),
	}, nil
}

func runMigrations(conn *sql.DB) error {
	slog.Debug("running database migrations")

	goose.SetBaseFS(db.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("migrations completed")
	return nil
}

func (s *SQLiteStorage) RawItems() storage.RawItemStore { return s.rawItems }
func (s *SQLiteStorage) Cards() storage.CardStore       { return s.cards }
func (s *SQLiteStorage) Registry() storage.RegistryStore {
	return s.registry
}
func (s *SQLiteStorage) Runs() storage.RunStore   { return s.runs }
func (s *SQLiteStorage) Queue() storage.QueueStore { return s.queue }

func (s *SQLiteStorage) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Conn exposes the raw connection for tests.
func (s *SQLiteStorage) Conn() *sql.DB { return s.conn }
