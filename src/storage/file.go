package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

// FileStore keeps the snapshot in <dir>/<key>.json and replaces it atomically.
type FileStore struct {
	Dir    string
	Key    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFileStore(cfg *models.MConfig, log *logger.Logger) *FileStore {
	return &FileStore{
		Dir:    cfg.Storage.DBPath,
		Key:    cfg.Storage.StorageKey,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (s *FileStore) path() string {
	return filepath.Join(s.Dir, s.Key+".json")
}

// -----------------------------------------------------------------------------

func (s *FileStore) Initialize() error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir %s: %w", s.Dir, err)
	}
	s.Logger.Info("File store ready at %s", s.path())
	return nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Load() ([]models.MWatchlistEntry, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return []models.MWatchlistEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

// -----------------------------------------------------------------------------

func (s *FileStore) Save(entries []models.MWatchlistEntry) error {
	data, err := EncodeSnapshot(entries)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, s.Key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path())
}

// -----------------------------------------------------------------------------

func (s *FileStore) Close() error {
	return nil
}
