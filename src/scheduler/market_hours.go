package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"

	"github.com/scmhub/calendar"
)

// MarketHours decides whether a tick should refresh.
type MarketHours interface {
	IsOpen(now time.Time, symbols []string) bool
}

// NewMarketHours builds the predicate named by cfg.Refresh.MarketHours.
func NewMarketHours(cfg *models.MConfig, log *logger.Logger) (MarketHours, error) {
	switch cfg.Refresh.MarketHours {
	case "simple", "":
		return SimpleHours{Open: cfg.Refresh.OpenHour, Close: cfg.Refresh.CloseHour}, nil
	case "calendar":
		return NewCalendarHours(log), nil
	default:
		return nil, fmt.Errorf("unknown market_hours mode: %q", cfg.Refresh.MarketHours)
	}
}

// -----------------------------------------------------------------------------

// SimpleHours is open Monday to Friday for local hours in [Open, Close). It
// ignores holidays and the exchange timezone.
type SimpleHours struct {
	Open  int
	Close int
}

func (h SimpleHours) IsOpen(now time.Time, _ []string) bool {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := now.Hour()
	return hour >= h.Open && hour < h.Close
}

// -----------------------------------------------------------------------------

// micBySuffix maps ticker suffixes to ISO 10383 market codes. Bare symbols
// trade on NYSE hours.
var micBySuffix = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".BR": "xbru",
	".MI": "xmil",
	".MC": "xmad",
	".ST": "xsto",
	".CO": "xcse",
	".HE": "xhel",
	".VI": "xwbo",
	".SW": "xswx",
	".TO": "xtse",
	".V":  "xtsx",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

const defaultMIC = "xnys"

// MICForSymbol returns the market code for symbol.
func MICForSymbol(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		if mic, ok := micBySuffix[strings.ToUpper(symbol[i:])]; ok {
			return mic
		}
	}
	return defaultMIC
}

// CalendarHours is open when any exchange trading a watched symbol is in
// session, holidays included.
type CalendarHours struct {
	Logger *logger.Logger

	mu        sync.Mutex
	calendars map[string]*calendar.Calendar
}

func NewCalendarHours(log *logger.Logger) *CalendarHours {
	return &CalendarHours{
		Logger:    log,
		calendars: make(map[string]*calendar.Calendar),
	}
}

func (h *CalendarHours) IsOpen(now time.Time, symbols []string) bool {
	seen := make(map[string]bool)
	for _, s := range symbols {
		mic := MICForSymbol(s)
		if seen[mic] {
			continue
		}
		seen[mic] = true

		cal := h.calendar(mic)
		if cal == nil {
			if fallbackOpen(now) {
				return true
			}
			continue
		}
		if cal.IsOpen(now.In(cal.Loc)) {
			return true
		}
	}
	return false
}

// calendar caches one calendar per market code, falling back to NYSE.
func (h *CalendarHours) calendar(mic string) *calendar.Calendar {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cal, ok := h.calendars[mic]; ok {
		return cal
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != defaultMIC {
		h.Logger.Warning("No calendar for %s, using %s", mic, defaultMIC)
		cal = calendar.GetCalendar(defaultMIC)
	}
	h.calendars[mic] = cal
	return cal
}

// fallbackOpen is NYSE regular hours, 09:30-16:00 New York time on weekdays.
func fallbackOpen(now time.Time) bool {
	if loc, err := time.LoadLocation("America/New_York"); err == nil {
		now = now.In(loc)
	}
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}
