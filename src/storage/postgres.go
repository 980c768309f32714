package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresStore keeps snapshots in a schema named after the running binary, so
// several deployments can share one database.
type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresStore{
		Config: cfg,
		Schema: schemaName(name),
		Logger: log,
	}, nil
}

// schemaName keeps letters, digits and underscores so the name can be quoted safely.
func schemaName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || r == '.':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "watchlist"
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) table() string {
	return fmt.Sprintf(`"%s"."watchlist_snapshots"`, d.Schema)
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`, d.table())
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create watchlist_snapshots: %w", err)
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Load() ([]models.MWatchlistEntry, error) {
	var payload []byte
	err := d.DB.QueryRow(
		fmt.Sprintf(`SELECT payload FROM %s WHERE key = $1`, d.table()),
		d.Config.Storage.StorageKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.MWatchlistEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(payload)
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Save(entries []models.MWatchlistEntry) error {
	data, err := EncodeSnapshot(entries)
	if err != nil {
		return err
	}

	_, err = d.DB.Exec(fmt.Sprintf(`
		INSERT INTO %s (key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`, d.table()), d.Config.Storage.StorageKey, string(data), time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
