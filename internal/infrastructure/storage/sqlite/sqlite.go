package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage — встроенное хранилище терминала. Файл базы принадлежит
// исключительно локальному процессу, внешние писатели не предполагаются.
type Storage struct {
	db *sql.DB
}

func New(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("открытие базы данных: %w", err)
	}

	storage := &Storage{db: db}

	// Создаем таблицы
	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("инициализация таблиц: %w", err)
	}

	return storage, nil
}

func (s *Storage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS device_users (
			_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			pin_hash TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			company TEXT NOT NULL DEFAULT '{}',
			location TEXT NOT NULL DEFAULT '{}',
			permissions TEXT NOT NULL DEFAULT '{}',
			source TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_device_users_status ON device_users(status);

		CREATE TABLE IF NOT EXISTS printers (
			_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			kitchen_id TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_printers_kitchen ON printers(kitchen_id);

		CREATE TABLE IF NOT EXISTS print_templates (
			_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			is_default INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sections (
			_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '{}',
			tables TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS check_requests (
			_id TEXT PRIMARY KEY,
			entity_name TEXT NOT NULL,
			status TEXT NOT NULL,
			last_sync TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_check_requests_entity ON check_requests(entity_name);

		CREATE TABLE IF NOT EXISTS outbox_operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL DEFAULT '',
			seq_id INTEGER NOT NULL DEFAULT 0,
			table_name TEXT NOT NULL,
			action TEXT NOT NULL,
			payload TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_operations(status);
		CREATE INDEX IF NOT EXISTS idx_outbox_request ON outbox_operations(request_id, seq_id);
	`)

	return err
}

// BulkUpdate выполняет fn в одной транзакции: либо видны все записи,
// либо ни одной. Исходная ошибка возвращается вызывающему как есть.
func (s *Storage) BulkUpdate(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "begin", Table: "tx", Err: err}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "commit", Table: "tx", Err: err}
	}

	return nil
}

func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Close() error {
	return s.db.Close()
}
