package watchlist

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/interfaces"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
	"stock-watchlist/src/storage"
)

// AddOutcome tells the caller whether Add changed the watchlist.
type AddOutcome int

const (
	Added AddOutcome = iota
	AlreadyPresent
)

func (o AddOutcome) String() string {
	if o == AlreadyPresent {
		return "already_present"
	}
	return "added"
}

// Observer receives committed snapshots with strictly increasing versions. It
// runs on the committing goroutine without c.mu held, so it may read the Core,
// but it must not call mutating Core methods. A snapshot superseded before its
// turn is skipped; the observer then sees the newer one.
type Observer func(models.MWatchlistSnapshot)

// Options tune the remote side of the core.
type Options struct {
	Concurrency    int           // parallel detail fetches per refresh cycle
	SearchAttempts int           // total tries for Search
	RetryDelay     time.Duration // first backoff step for Search
}

// OptionsFromConfig maps the network section onto Options.
func OptionsFromConfig(cfg *models.MConfig) Options {
	return Options{
		Concurrency:    cfg.Network.ConcurrentRequests,
		SearchAttempts: cfg.Network.MaxRetries + 1,
		RetryDelay:     500 * time.Millisecond,
	}
}

type subscription struct {
	id  int
	obs Observer
}

// -----------------------------------------------------------------------------

// Core owns the canonical watchlist and the selected entry. Every change goes
// through commitLocked, which keeps symbols unique, writes the list through to
// the store and publishes a snapshot.
type Core struct {
	gateway  interfaces.IRemoteGateway
	store    interfaces.IWatchlistStore
	reporter *helpers.ErrorReporter
	logger   *logger.Logger
	opts     Options

	mu        sync.Mutex
	entries   []models.MWatchlistEntry
	selected  *models.MWatchlistEntry
	version   uint64
	inFlight  bool
	observers []subscription
	nextObsID int

	// serialises deliveries; never taken while c.mu is held
	publishMu sync.Mutex
	published uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// -----------------------------------------------------------------------------

// NewCore starts from initial, usually the result of storage.LoadOrEmpty.
func NewCore(gateway interfaces.IRemoteGateway, store interfaces.IWatchlistStore, initial []models.MWatchlistEntry,
	reporter *helpers.ErrorReporter, log *logger.Logger, opts Options) *Core {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.SearchAttempts <= 0 {
		opts.SearchAttempts = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Core{
		gateway:   gateway,
		store:     store,
		reporter:  reporter,
		logger:    log,
		opts:      opts,
		entries:   storage.Dedupe(initial),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// Watchlist returns a copy of the entries in display order.
func (c *Core) Watchlist() []models.MWatchlistEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyEntries(c.entries)
}

// Selected returns a copy of the selected entry, or nil.
func (c *Core) Selected() *models.MWatchlistEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyEntry(c.selected)
}

// Snapshot returns the current state with its commit version.
func (c *Core) Snapshot() models.MWatchlistSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Refreshing reports whether a refresh cycle is in flight.
func (c *Core) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Subscribe registers obs and returns a function that removes it.
func (c *Core) Subscribe(obs Observer) func() {
	c.mu.Lock()
	id := c.nextObsID
	c.nextObsID++
	c.observers = append(c.observers, subscription{id: id, obs: obs})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.observers {
			if s.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

// Add appends entry unless its symbol is already tracked.
func (c *Core) Add(entry models.MWatchlistEntry) (AddOutcome, error) {
	entry.Symbol = strings.TrimSpace(entry.Symbol)
	if entry.Symbol == "" {
		return Added, helpers.NewValidationError("cannot add an entry without a symbol")
	}

	c.mu.Lock()
	if indexOf(c.entries, entry.Symbol) >= 0 {
		c.mu.Unlock()
		c.logger.Debug("%s already in watchlist", entry.Symbol)
		return AlreadyPresent, nil
	}

	next := append(copyEntries(c.entries), entry)
	snap, saveErr := c.commitLocked(next, c.selected, true)
	c.unlockAndPublish(snap)

	c.logger.Info("Added %s to watchlist (%d entries)", entry.Symbol, len(snap.Entries))
	c.reportSave(saveErr)
	return Added, nil
}

// -----------------------------------------------------------------------------

// Remove drops symbol from the watchlist and clears the selection if it
// pointed at it. It reports false when nothing was removed.
func (c *Core) Remove(symbol string) bool {
	symbol = strings.TrimSpace(symbol)

	c.mu.Lock()
	idx := indexOf(c.entries, symbol)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}

	next := make([]models.MWatchlistEntry, 0, len(c.entries)-1)
	next = append(next, c.entries[:idx]...)
	next = append(next, c.entries[idx+1:]...)

	selected := c.selected
	if selected != nil && selected.Symbol == symbol {
		selected = nil
	}
	snap, saveErr := c.commitLocked(next, selected, true)
	c.unlockAndPublish(snap)

	c.reportSave(saveErr)
	c.reporter.Confirm(fmt.Sprintf("%s removed from watchlist", symbol), symbol)
	return true
}

// -----------------------------------------------------------------------------

// Select shows entry immediately and asks the gateway for a prediction in the
// background. A prediction that lands after the selection moved to another
// symbol is dropped.
func (c *Core) Select(entry models.MWatchlistEntry) error {
	entry.Symbol = strings.TrimSpace(entry.Symbol)
	if entry.Symbol == "" {
		return helpers.NewValidationError("cannot select an entry without a symbol")
	}

	c.mu.Lock()
	selected := entry
	snap, _ := c.commitLocked(c.entries, &selected, false)
	c.unlockAndPublish(snap)

	if entry.ID == "" {
		c.reporter.Report(helpers.NewValidationError("entry has no id"), "prediction", entry.Symbol)
		return nil
	}

	c.wg.Add(1)
	go c.fetchPrediction(entry.ID, entry.Symbol)
	return nil
}

func (c *Core) fetchPrediction(id models.StockID, symbol string) {
	defer c.wg.Done()

	pred, err := c.gateway.RequestPrediction(c.ctx, id)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		c.reporter.Report(err, "prediction", symbol)
		return
	}

	c.mu.Lock()
	if c.selected == nil || c.selected.Symbol != symbol {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale prediction for %s", symbol)
		return
	}

	selected := *c.selected
	selected.ApplyPrediction(*pred)

	next := c.entries
	persist := false
	if idx := indexOf(c.entries, symbol); idx >= 0 {
		next = copyEntries(c.entries)
		next[idx].ApplyPrediction(*pred)
		persist = true
	}
	snap, saveErr := c.commitLocked(next, &selected, persist)
	c.unlockAndPublish(snap)

	c.logger.Info("Prediction for %s: %s", symbol, selected.PredictedPrice.Decimal.String())
	c.reportSave(saveErr)
}

// -----------------------------------------------------------------------------

// ClearSelection unselects without touching the watchlist.
func (c *Core) ClearSelection() {
	c.mu.Lock()
	if c.selected == nil {
		c.mu.Unlock()
		return
	}
	snap, _ := c.commitLocked(c.entries, nil, false)
	c.unlockAndPublish(snap)
}

// -----------------------------------------------------------------------------
// Gateway passthroughs
// -----------------------------------------------------------------------------

// Search queries the gateway, retrying transient failures.
func (c *Core) Search(ctx context.Context, query string) ([]models.MWatchlistEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, helpers.NewValidationError("search query is required")
	}

	results, err := helpers.RetryWithBackoff(ctx, c.logger, "search "+query, c.opts.SearchAttempts, c.opts.RetryDelay,
		func() ([]models.MWatchlistEntry, error) {
			return c.gateway.Search(ctx, query)
		})
	if err != nil {
		if !helpers.IsValidation(err) {
			c.reporter.Report(err, "search", "")
		}
		return nil, err
	}
	return results, nil
}

// Details fetches the detail view payload for id.
func (c *Core) Details(ctx context.Context, id models.StockID) (*models.MStockDetails, error) {
	details, err := c.gateway.FetchDetails(ctx, id)
	if err != nil {
		c.reporter.Report(err, "details", id.String())
		return nil, err
	}
	return details, nil
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Wait blocks until background prediction requests have finished.
func (c *Core) Wait() {
	c.wg.Wait()
}

// Close cancels background requests and waits for them.
func (c *Core) Close() {
	c.cancel()
	c.wg.Wait()
}

// -----------------------------------------------------------------------------
// Commit
// -----------------------------------------------------------------------------

// commitLocked installs a new state. Callers hold c.mu and must hand the
// returned snapshot to unlockAndPublish.
func (c *Core) commitLocked(entries []models.MWatchlistEntry, selected *models.MWatchlistEntry, persist bool) (models.MWatchlistSnapshot, error) {
	if len(entries) > 0 {
		entries = storage.Dedupe(entries)
	}
	c.entries = entries
	c.selected = selected
	c.version++

	var saveErr error
	if persist && c.store != nil {
		if err := c.store.Save(c.entries); err != nil {
			saveErr = helpers.NewPersistenceError("failed to save watchlist", err)
		}
	}
	return c.snapshotLocked(), saveErr
}

// unlockAndPublish releases c.mu, then delivers snap under publishMu unless a
// newer snapshot has already gone out.
func (c *Core) unlockAndPublish(snap models.MWatchlistSnapshot) {
	observers := make([]Observer, len(c.observers))
	for i, s := range c.observers {
		observers[i] = s.obs
	}
	c.mu.Unlock()

	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	if snap.Version <= c.published {
		return
	}
	c.published = snap.Version

	for _, obs := range observers {
		obs(snap)
	}
}

func (c *Core) reportSave(err error) {
	if err != nil {
		c.reporter.Report(err, "persistence", "")
	}
}

func (c *Core) snapshotLocked() models.MWatchlistSnapshot {
	return models.MWatchlistSnapshot{
		Version:  c.version,
		Entries:  copyEntries(c.entries),
		Selected: copyEntry(c.selected),
	}
}

// -----------------------------------------------------------------------------

func indexOf(entries []models.MWatchlistEntry, symbol string) int {
	for i := range entries {
		if entries[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

func copyEntries(entries []models.MWatchlistEntry) []models.MWatchlistEntry {
	out := make([]models.MWatchlistEntry, len(entries))
	copy(out, entries)
	return out
}

func copyEntry(e *models.MWatchlistEntry) *models.MWatchlistEntry {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}
