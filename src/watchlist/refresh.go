package watchlist

import (
	"context"
	"sync"
	"time"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/models"

	"golang.org/x/sync/errgroup"
)

// refreshTarget identifies an entry by symbol and id, so a symbol re-added
// with another id during a cycle does not take the old id's quote.
type refreshTarget struct {
	id     models.StockID
	symbol string
}

func targetOf(e models.MWatchlistEntry) refreshTarget {
	return refreshTarget{id: e.ID, symbol: e.Symbol}
}

// -----------------------------------------------------------------------------

// RefreshAll re-fetches details for every entry and merges them in a single
// commit. A call made while another cycle runs returns a Skipped report at
// once. Per-symbol failures are reported and listed, never returned.
func (c *Core) RefreshAll(ctx context.Context) models.MRefreshReport {
	start := time.Now()

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Debug("Refresh already in flight, skipping")
		return models.MRefreshReport{Skipped: true}
	}
	c.inFlight = true
	targets := make([]refreshTarget, len(c.entries))
	for i, e := range c.entries {
		targets[i] = targetOf(e)
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	report := models.MRefreshReport{Failures: map[string]string{}}
	if len(targets) == 0 {
		report.Duration = time.Since(start)
		return report
	}

	fresh, failures := c.fetchAll(ctx, targets)

	c.mu.Lock()
	next := copyEntries(c.entries)
	for i := range next {
		if d, ok := fresh[targetOf(next[i])]; ok {
			next[i].ApplyQuote(*d)
			report.Refreshed = append(report.Refreshed, next[i].Symbol)
		}
	}
	selected := copyEntry(c.selected)
	if selected != nil {
		if d, ok := fresh[targetOf(*selected)]; ok {
			selected.ApplyQuote(*d)
		}
	}

	var saveErr error
	if len(fresh) > 0 {
		var snap models.MWatchlistSnapshot
		snap, saveErr = c.commitLocked(next, selected, true)
		c.unlockAndPublish(snap)
	} else {
		c.mu.Unlock()
	}

	// failures caused by cancellation are listed but not notified
	cancelled := ctx.Err() != nil
	for _, t := range targets {
		if err, ok := failures[t]; ok {
			report.Failures[t.symbol] = err.Error()
			if !cancelled {
				c.reporter.Report(err, "refresh", t.symbol)
			}
		}
	}
	c.reportSave(saveErr)

	report.Duration = time.Since(start)
	c.logger.Info("Refresh cycle done: %d refreshed, %d failed in %v",
		len(report.Refreshed), len(report.Failures), report.Duration.Round(time.Millisecond))
	return report
}

// -----------------------------------------------------------------------------

// fetchAll requests details for each target with bounded parallelism. One
// failure never cancels the others.
func (c *Core) fetchAll(ctx context.Context, targets []refreshTarget) (map[refreshTarget]*models.MStockDetails, map[refreshTarget]error) {
	var (
		mu       sync.Mutex
		fresh    = make(map[refreshTarget]*models.MStockDetails, len(targets))
		failures = make(map[refreshTarget]error)
	)

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)

	for _, t := range targets {
		g.Go(func() error {
			var (
				d   *models.MStockDetails
				err error
			)
			if t.id == "" {
				err = helpers.NewValidationError("entry has no id")
			} else {
				d, err = c.gateway.FetchDetails(ctx, t.id)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[t] = err
			} else if d != nil {
				fresh[t] = d
			}
			return nil
		})
	}
	_ = g.Wait()

	return fresh, failures
}
