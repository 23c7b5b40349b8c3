package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/Kloudy-Sky/openintel/internal/domain"
)

// yahooBaseURL is the unauthenticated v8 chart API.
const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Yahoo blocks default Go user agents, so pretend to be a browser.
const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// YahooFeed fetches daily quotes for a set of equity tickers and
// emits one entry per ticker with the price in metadata.
type YahooFeed struct {
	tickers    []string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewYahooFeed creates a feed for the given tickers. An empty baseURL
// uses the public Yahoo endpoint.
func NewYahooFeed(tickers []string, baseURL string, logger *slog.Logger) *YahooFeed {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooFeed{
		tickers:    tickers,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With(slog.String("component", "yahoo_feed")),
	}
}

// Name implements Feed.
func (f *YahooFeed) Name() string { return "yahoo_finance" }

// Fetch retrieves a quote for every configured ticker. One failing
// ticker does not drop the rest.
func (f *YahooFeed) Fetch(ctx context.Context) (FetchOutput, error) {
	var output FetchOutput

	for _, ticker := range f.tickers {
		entry, err := f.fetchOne(ctx, ticker)
		if err != nil {
			f.logger.Warn("ticker fetch failed", slog.String("ticker", ticker), slog.String("error", err.Error()))
			output.FetchErrors = append(output.FetchErrors, fmt.Sprintf("%s: %s", ticker, err))
			continue
		}
		output.Entries = append(output.Entries, *entry)
	}

	return output, nil
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta yahooChartMeta `json:"meta"`
		} `json:"result"`
		Error json.RawMessage `json:"error"`
	} `json:"chart"`
}

type yahooChartMeta struct {
	Symbol               string   `json:"symbol"`
	ShortName            string   `json:"shortName"`
	LongName             string   `json:"longName"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	ChartPreviousClose   *float64 `json:"chartPreviousClose"`
	RegularMarketVolume  *int64   `json:"regularMarketVolume"`
	FiftyTwoWeekHigh     *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      *float64 `json:"fiftyTwoWeekLow"`
	RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
}

func (f *YahooFeed) fetchOne(ctx context.Context, ticker string) (*domain.IntelEntry, error) {
	url := fmt.Sprintf("%s/%s?range=1d&interval=1d", f.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned %d", resp.StatusCode)
	}

	var data yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(data.Chart.Error) > 0 && string(data.Chart.Error) != "null" {
		return nil, fmt.Errorf("yahoo error: %s", data.Chart.Error)
	}
	if len(data.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart results")
	}

	meta := &data.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("no price for %s", ticker)
	}
	return quoteEntry(meta), nil
}

func quoteEntry(meta *yahooChartMeta) *domain.IntelEntry {
	price := *meta.RegularMarketPrice
	prevClose := price
	if meta.ChartPreviousClose != nil {
		prevClose = *meta.ChartPreviousClose
	}
	change := price - prevClose
	changePct := 0.0
	if prevClose > 0 {
		changePct = change / prevClose * 100
	}

	name := meta.ShortName
	if name == "" {
		name = meta.LongName
	}
	if name == "" {
		name = meta.Symbol
	}

	direction := "neutral"
	switch {
	case changePct > 2:
		direction = "bullish"
	case changePct < -2:
		direction = "bearish"
	}

	title := fmt.Sprintf("%s $%.2f (%+.2f%%)", meta.Symbol, price, changePct)

	bodyParts := []string{
		fmt.Sprintf("%s trading at $%.2f (%+.2f, %+.2f%%)", name, price, change, changePct),
	}
	if meta.RegularMarketVolume != nil {
		bodyParts = append(bodyParts, fmt.Sprintf("Volume: %d", *meta.RegularMarketVolume))
	}
	if meta.FiftyTwoWeekHigh != nil && meta.FiftyTwoWeekLow != nil {
		high, low := *meta.FiftyTwoWeekHigh, *meta.FiftyTwoWeekLow
		rangePct := 50.0
		if high > low {
			rangePct = (price - low) / (high - low) * 100
		}
		bodyParts = append(bodyParts, fmt.Sprintf("52w range: $%.2f-$%.2f (%.0f%% of range)", low, high, rangePct))
	}
	if meta.RegularMarketDayHigh != nil && meta.RegularMarketDayLow != nil {
		bodyParts = append(bodyParts, fmt.Sprintf("Day range: $%.2f-$%.2f", *meta.RegularMarketDayLow, *meta.RegularMarketDayHigh))
	}

	tags := []string{meta.Symbol, "yahoo-feed", direction}
	if math.Abs(changePct) > 5 {
		tags = append(tags, "big-mover")
	}
	if math.Abs(changePct) > 10 {
		tags = append(tags, "extreme-mover")
	}

	conf := 0.7
	if meta.RegularMarketVolume != nil && meta.FiftyTwoWeekHigh != nil {
		conf = 0.85
	}

	entry := domain.NewIntelEntry(domain.CategoryMarket, title, strings.Join(bodyParts, ". "),
		tags, domain.MustConfidence(conf), domain.SourceExternal)
	entry.Source = "yahoo_finance"
	entry.Actionable = math.Abs(changePct) > 5
	entry.Metadata = map[string]any{
		"price":          price,
		"previous_close": prevClose,
		"change":         change,
		"change_pct":     changePct,
	}
	if meta.RegularMarketVolume != nil {
		entry.Metadata["volume"] = *meta.RegularMarketVolume
	}
	if meta.RegularMarketDayHigh != nil {
		entry.Metadata["day_high"] = *meta.RegularMarketDayHigh
	}
	if meta.RegularMarketDayLow != nil {
		entry.Metadata["day_low"] = *meta.RegularMarketDayLow
	}
	if meta.FiftyTwoWeekHigh != nil {
		entry.Metadata["52w_high"] = *meta.FiftyTwoWeekHigh
	}
	if meta.FiftyTwoWeekLow != nil {
		entry.Metadata["52w_low"] = *meta.FiftyTwoWeekLow
	}
	return entry
}
