package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"stock-watchlist/src/models"
)

// SnapshotVersion is the payload format written by Encode.
const SnapshotVersion = 1

type snapshotPayload struct {
	Version int                      `json:"version"`
	Entries []models.MWatchlistEntry `json:"entries"`
}

// -----------------------------------------------------------------------------

// EncodeSnapshot serialises entries in order.
func EncodeSnapshot(entries []models.MWatchlistEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.MWatchlistEntry{}
	}
	return json.Marshal(snapshotPayload{Version: SnapshotVersion, Entries: entries})
}

// -----------------------------------------------------------------------------

// DecodeSnapshot reads a versioned payload or a bare JSON array of entries.
func DecodeSnapshot(data []byte) ([]models.MWatchlistEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty snapshot")
	}

	if trimmed[0] == '[' {
		var entries []models.MWatchlistEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode legacy snapshot: %w", err)
		}
		return entries, nil
	}

	var payload snapshotPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if payload.Version < 1 || payload.Version > SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", payload.Version)
	}
	return payload.Entries, nil
}
