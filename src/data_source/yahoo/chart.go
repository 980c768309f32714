package yahoo

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// YahooChartResponse is the subset of the v8 chart payload the gateway reads.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string   `json:"currency"`
				Symbol               string   `json:"symbol"`
				ExchangeName         string   `json:"exchangeName"`
				InstrumentType       string   `json:"instrumentType"`
				ExchangeTimezoneName string   `json:"exchangeTimezoneName"`
				RegularMarketTime    int64    `json:"regularMarketTime"`
				RegularMarketPrice   float64  `json:"regularMarketPrice"`
				ChartPreviousClose   float64  `json:"chartPreviousClose"`
				RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
				RegularMarketVolume  *float64 `json:"regularMarketVolume"`
				FiftyTwoWeekHigh     *float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow      *float64 `json:"fiftyTwoWeekLow"`
				LongName             string   `json:"longName"`
				ShortName            string   `json:"shortName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"` // Use pointers to handle null
					Low    []*float64 `json:"low"`
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

// dailyBar is one cleaned OHLCV point.
type dailyBar struct {
	timestamp int64
	open      float64
	high      float64
	low       float64
	close     float64
	volume    float64
}

// chartData is a parsed chart: metadata plus bars sorted by time.
type chartData struct {
	symbol     string
	name       string
	price      float64
	prevClose  float64
	marketTime int64
	location   *time.Location
	dayHigh    *float64
	dayLow     *float64
	volume     *float64
	yearHigh   *float64
	yearLow    *float64
	bars       []dailyBar
}

// -----------------------------------------------------------------------------

func parseChartResponse(symbol string, data []byte) (*chartData, error) {
	var resp YahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no result in response for %s", symbol)
	}

	result := resp.Chart.Result[0]
	meta := result.Meta
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data in response for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	n := len(result.Timestamp)
	if len(quote.Close) != n || len(quote.Open) != n || len(quote.High) != n ||
		len(quote.Low) != n || len(quote.Volume) != n {
		return nil, fmt.Errorf("data alignment error for %s", symbol)
	}

	var bars []dailyBar
	for i := 0; i < n; i++ {
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}
		if *quote.Close[i] <= 0 || *quote.Volume[i] < 0 {
			continue
		}
		bars = append(bars, dailyBar{
			timestamp: result.Timestamp[i],
			open:      *quote.Open[i],
			high:      *quote.High[i],
			low:       *quote.Low[i],
			close:     *quote.Close[i],
			volume:    *quote.Volume[i],
		})
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].timestamp < bars[j].timestamp
	})

	loc := time.UTC
	if meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	name := meta.ShortName
	if name == "" {
		name = meta.LongName
	}
	sym := meta.Symbol
	if sym == "" {
		sym = symbol
	}

	cd := &chartData{
		symbol:     sym,
		name:       name,
		price:      meta.RegularMarketPrice,
		prevClose:  meta.ChartPreviousClose,
		marketTime: meta.RegularMarketTime,
		location:   loc,
		dayHigh:    meta.RegularMarketDayHigh,
		dayLow:     meta.RegularMarketDayLow,
		volume:     meta.RegularMarketVolume,
		yearHigh:   meta.FiftyTwoWeekHigh,
		yearLow:    meta.FiftyTwoWeekLow,
		bars:       bars,
	}
	if cd.price <= 0 && len(bars) > 0 {
		cd.price = bars[len(bars)-1].close
	}
	if cd.price <= 0 {
		return nil, fmt.Errorf("no price for %s", symbol)
	}
	return cd, nil
}

// -----------------------------------------------------------------------------

func (c *chartData) closes() []float64 {
	out := make([]float64, len(c.bars))
	for i, b := range c.bars {
		out[i] = b.close
	}
	return out
}

// previousClose is the close of the session before the latest bar, falling
// back to the chart's previous close.
func (c *chartData) previousClose() float64 {
	if len(c.bars) >= 2 {
		return c.bars[len(c.bars)-2].close
	}
	return c.prevClose
}

func (c *chartData) barDate(b dailyBar) time.Time {
	return time.Unix(b.timestamp, 0).In(c.location)
}
