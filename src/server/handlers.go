package server

import (
	"errors"
	"net/http"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/models"
	"stock-watchlist/src/watchlist"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	snap := s.Core.Snapshot()
	s.stateMutex.RLock()
	connections := s.connected
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": connections,
		"version":     snap.Version,
		"entries":     len(snap.Entries),
		"refreshing":  s.Core.Refreshing(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getWatchlist(c *gin.Context) {
	c.JSON(http.StatusOK, s.Core.Snapshot())
}

// -----------------------------------------------------------------------------

func (s *APIServer) addEntry(c *gin.Context) {
	var entry models.MWatchlistEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		writeError(c, helpers.NewValidationError("invalid entry: "+err.Error()))
		return
	}

	outcome, err := s.Core.Add(entry)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if outcome == watchlist.AlreadyPresent {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"outcome":  outcome.String(),
		"snapshot": s.Core.Snapshot(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) removeEntry(c *gin.Context) {
	removed := s.Core.Remove(c.Param("symbol"))
	c.JSON(http.StatusOK, gin.H{
		"removed":  removed,
		"snapshot": s.Core.Snapshot(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) refreshAll(c *gin.Context) {
	report := s.Core.RefreshAll(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getSelected(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"selected": s.Core.Selected()})
}

// -----------------------------------------------------------------------------

func (s *APIServer) selectEntry(c *gin.Context) {
	var entry models.MWatchlistEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		writeError(c, helpers.NewValidationError("invalid entry: "+err.Error()))
		return
	}
	if err := s.Core.Select(entry); err != nil {
		writeError(c, err)
		return
	}
	// The prediction arrives later over the websocket.
	c.JSON(http.StatusAccepted, gin.H{"selected": s.Core.Selected()})
}

// -----------------------------------------------------------------------------

func (s *APIServer) clearSelection(c *gin.Context) {
	s.Core.ClearSelection()
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------

func (s *APIServer) search(c *gin.Context) {
	results, err := s.Core.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	if results == nil {
		results = []models.MWatchlistEntry{}
	}
	c.JSON(http.StatusOK, results)
}

// -----------------------------------------------------------------------------

func (s *APIServer) details(c *gin.Context) {
	d, err := s.Core.Details(c.Request.Context(), models.StockID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// -----------------------------------------------------------------------------
// Error mapping
// -----------------------------------------------------------------------------

// writeError answers {"error": msg} with a status matching the error kind.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var remote *helpers.RemoteError
	switch {
	case helpers.IsValidation(err):
		status = http.StatusBadRequest
	case errors.As(err, &remote):
		status = http.StatusBadGateway
		if remote.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
