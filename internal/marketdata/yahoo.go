// Package marketdata fetches historical OHLCV series from Yahoo Finance's
// chart API. The period/interval vocabulary (1mo, 6mo, 1y, max / 1d, 1wk, 1h)
// is the provider's own — we pass both strings through untouched and let the
// provider decide whether they make sense.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/stockdata-service/internal/model"
)

// ErrNoData is returned when the provider has no rows for the symbol —
// unknown ticker, delisted instrument, or an empty window. Callers check
// with errors.Is. Transport and provider errors are returned as ordinary
// wrapped errors so logs can tell the cases apart, even though the
// request pipeline treats every fetch failure as "no data".
var ErrNoData = errors.New("no data for symbol")

// Fetcher is the interface the request pipeline depends on. Keeping it to
// one method makes the stub in tests trivial.
type Fetcher interface {
	Fetch(ctx context.Context, symbol, period, interval string) (model.Series, error)
}

// YahooFetcher implements Fetcher against the v8 chart endpoint.
type YahooFetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewYahooFetcher creates a fetcher. baseURL is configurable so tests can
// point it at an httptest server.
func NewYahooFetcher(baseURL string, timeout time.Duration, logger *zap.Logger) *YahooFetcher {
	return &YahooFetcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// chartResponse is the subset of the Yahoo chart payload we consume.
// OHLCV arrays use *float64 because Yahoo emits JSON null for halted or
// missing periods — those nulls must survive all the way to the store.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
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

// Fetch retrieves the historical series for one symbol. One attempt, no
// retry: any failure is the caller's to classify.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol, period, interval string) (model.Series, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", f.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	q := req.URL.Query()
	q.Set("range", period)
	q.Set("interval", interval)
	q.Set("includePrePost", "false")
	req.URL.RawQuery = q.Encode()

	// Yahoo rejects requests without a User-Agent.
	req.Header.Set("User-Agent", "stockdata-service/1.0")

	f.logger.Debug("fetching chart data",
		zap.String("symbol", symbol),
		zap.String("period", period),
		zap.String("interval", interval),
	)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10MB limit
	if err != nil {
		return nil, fmt.Errorf("reading chart response: %w", err)
	}

	// Yahoo answers 404 for unknown symbols — that's "no data", not an error.
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s: HTTP %d", symbol, resp.StatusCode)
	}

	return parseChart(symbol, body)
}

// parseChart converts the raw chart payload into a Series, preserving
// provider nulls as nil field values.
func parseChart(symbol string, body []byte) (model.Series, error) {
	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("decoding chart response for %s: %w", symbol, err)
	}

	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("provider error for %s: %s (%s)",
			symbol, cr.Chart.Error.Description, cr.Chart.Error.Code)
	}

	if len(cr.Chart.Result) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}

	result := cr.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}

	quote := result.Indicators.Quote[0]

	series := make(model.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Provider timestamps are Unix epochs; normalize to UTC here so the
		// shaper keys them consistently regardless of exchange timezone.
		series = append(series, model.Observation{
			Timestamp: time.Unix(ts, 0).UTC(),
			Fields: map[string]*float64{
				"open":   at(quote.Open, i),
				"high":   at(quote.High, i),
				"low":    at(quote.Low, i),
				"close":  at(quote.Close, i),
				"volume": at(quote.Volume, i),
			},
		})
	}

	return series, nil
}

// at indexes a quote array defensively: Yahoo occasionally returns arrays
// shorter than the timestamp list, which we treat as nulls rather than
// failing the whole fetch.
func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}
