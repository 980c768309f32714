package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

// Refresher runs one refresh cycle. *watchlist.Core implements it.
type Refresher interface {
	RefreshAll(ctx context.Context) models.MRefreshReport
}

// State of the controller's timer.
type State string

const (
	Idle  State = "idle"
	Armed State = "armed"
)

// -----------------------------------------------------------------------------

// RefreshController owns the single refresh timer. It is armed while the
// watchlist is non-empty and re-armed whenever the watchlist membership
// changes; the old timer is always stopped before a new one starts.
type RefreshController struct {
	refresher Refresher
	clock     Clock
	hours     MarketHours
	interval  time.Duration
	logger    *logger.Logger

	mu      sync.Mutex
	ticker  Ticker
	stop    chan struct{}
	symbols []string
	key     string
	active  int
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// -----------------------------------------------------------------------------

func NewRefreshController(refresher Refresher, clock Clock, hours MarketHours, interval time.Duration, log *logger.Logger) *RefreshController {
	if clock == nil {
		clock = RealClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RefreshController{
		refresher: refresher,
		clock:     clock,
		hours:     hours,
		interval:  interval,
		logger:    log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// -----------------------------------------------------------------------------

// Arm starts a timer for symbols, stopping any previous one first. An empty
// list leaves the controller idle.
func (c *RefreshController) Arm(symbols []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armLocked(symbols)
}

// Disarm stops the timer. A tick already being handled finishes on its own.
func (c *RefreshController) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
}

// OnWatchlistChange re-arms when the ordered symbol list differs from the one
// the timer was armed with. Subscribe it to the watchlist core.
func (c *RefreshController) OnWatchlistChange(snap models.MWatchlistSnapshot) {
	symbols := snap.Symbols()
	key := strings.Join(symbols, ",")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || (key == c.key && (c.ticker != nil) == (len(symbols) > 0)) {
		return
	}
	c.armLocked(symbols)
}

// State reports whether a timer is running.
func (c *RefreshController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil {
		return Armed
	}
	return Idle
}

// ActiveTimers counts timers started and not yet stopped. It is 0 or 1.
func (c *RefreshController) ActiveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close stops the timer, cancels a running cycle and waits for the loop to exit.
func (c *RefreshController) Close() {
	c.mu.Lock()
	c.closed = true
	c.disarmLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// -----------------------------------------------------------------------------

func (c *RefreshController) armLocked(symbols []string) {
	c.disarmLocked()

	c.symbols = append([]string(nil), symbols...)
	c.key = strings.Join(symbols, ",")
	if c.closed || len(symbols) == 0 {
		c.logger.Debug("Refresh timer idle")
		return
	}

	ticker := c.clock.NewTicker(c.interval)
	stop := make(chan struct{})
	c.ticker = ticker
	c.stop = stop
	c.active++

	c.wg.Add(1)
	go c.loop(ticker, stop)
	c.logger.Info("Refresh timer armed for %d symbols every %v", len(symbols), c.interval)
}

func (c *RefreshController) disarmLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.stop)
	c.ticker = nil
	c.stop = nil
	c.active--
	c.logger.Debug("Refresh timer stopped")
}

// -----------------------------------------------------------------------------

func (c *RefreshController) loop(ticker Ticker, stop <-chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			// stop wins over a tick that raced it
			select {
			case <-stop:
				return
			default:
			}
			c.handleTick()
		}
	}
}

// handleTick refreshes when the market-hours predicate holds. It reports
// whether a cycle ran.
func (c *RefreshController) handleTick() bool {
	now := c.clock.Now()

	c.mu.Lock()
	symbols := c.symbols
	c.mu.Unlock()

	if !c.hours.IsOpen(now, symbols) {
		c.logger.Debug("Market closed at %s, skipping refresh", now.Format(time.RFC1123))
		return false
	}

	report := c.refresher.RefreshAll(c.ctx)
	if report.Skipped {
		c.logger.Debug("Tick dropped, a refresh is already running")
	}
	return !report.Skipped
}
