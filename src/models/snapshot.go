package models

import "time"

// MWatchlistSnapshot is what observers receive after every commit.
// Entries and Selected are copies; mutating them does not touch the core.
type MWatchlistSnapshot struct {
	Version  uint64            `json:"version"`
	Entries  []MWatchlistEntry `json:"entries"`
	Selected *MWatchlistEntry  `json:"selected"`
}

// Symbols returns the ordered symbol list, the identity of the watchlist.
func (s MWatchlistSnapshot) Symbols() []string {
	out := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Symbol
	}
	return out
}

// -----------------------------------------------------------------------------

// MRefreshReport summarises one refresh cycle.
type MRefreshReport struct {
	Skipped   bool              `json:"skipped"`
	Refreshed []string          `json:"refreshed"`
	Failures  map[string]string `json:"failures"`
	Duration  time.Duration     `json:"duration"`
}

// -----------------------------------------------------------------------------

// Notification levels
const (
	NotifyInfo  = "info"
	NotifyError = "error"
)

// MNotification is a user-visible transient message.
type MNotification struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Symbol  string    `json:"symbol,omitempty"`
	Time    time.Time `json:"time"`
}

// -----------------------------------------------------------------------------

// Websocket message types
const (
	MessageSnapshot     = "snapshot"
	MessageNotification = "notification"
)

// MServerMessage is one websocket frame pushed to UI clients.
type MServerMessage struct {
	Type         string              `json:"type"`
	Snapshot     *MWatchlistSnapshot `json:"snapshot,omitempty"`
	Notification *MNotification      `json:"notification,omitempty"`
}

// MClientCommand is what a UI client may send over the websocket.
type MClientCommand struct {
	Command string `json:"command"` // "snapshot" asks for the current state
}
