package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteStore keeps one snapshot row per storage key.
type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBPath
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS watchlist_snapshots (
			key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create watchlist_snapshots: %w", err)
	}

	d.Logger.Info("SQLite store ready at %s", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Load() ([]models.MWatchlistEntry, error) {
	var payload string
	err := d.DB.QueryRow(
		"SELECT payload FROM watchlist_snapshots WHERE key = ?",
		d.Config.Storage.StorageKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.MWatchlistEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot([]byte(payload))
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Save(entries []models.MWatchlistEntry) error {
	data, err := EncodeSnapshot(entries)
	if err != nil {
		return err
	}

	_, err = d.DB.Exec(`
		INSERT INTO watchlist_snapshots (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, d.Config.Storage.StorageKey, string(data), time.Now().UTC().Unix())
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
