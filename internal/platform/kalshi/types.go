package kalshi

import "encoding/json"

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// Market represents a market as returned by the Kalshi REST API.
// Prices are in cents (1-99).
type Market struct {
	Ticker       string  `json:"ticker"`
	EventTicker  string  `json:"event_ticker"`
	Title        string  `json:"title"`
	Subtitle     string  `json:"subtitle"`
	Status       string  `json:"status"` // "open", "closed", "settled"
	YesBid       float64 `json:"yes_bid"`
	YesAsk       float64 `json:"yes_ask"`
	LastPrice    float64 `json:"last_price"`
	Volume24H    int64   `json:"volume_24h"`
	OpenInterest int64   `json:"open_interest"`
	OpenTime     string  `json:"open_time"`
	CloseTime    string  `json:"close_time"`
}

// Midpoint returns the yes midpoint in cents, falling back to the
// single quoted side when only one exists. Zero means unpriced.
func (m *Market) Midpoint() float64 {
	switch {
	case m.YesBid > 0 && m.YesAsk > 0:
		return (m.YesBid + m.YesAsk) / 2
	case m.YesAsk > 0:
		return m.YesAsk
	default:
		return m.YesBid
	}
}

// ErrorResponse represents a Kalshi API error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --------------------------------------------------------------------------
// Kalshi WebSocket DTOs
// --------------------------------------------------------------------------

// WSMessage is the envelope for Kalshi WebSocket messages.
type WSMessage struct {
	Type string          `json:"type"` // "ticker", "subscribed", "error", etc.
	Msg  json.RawMessage `json:"msg"`
	SID  int64           `json:"sid"`
}

// WSTicker is a price update received on the "ticker" channel.
type WSTicker struct {
	Ticker string  `json:"market_ticker"`
	Price  float64 `json:"price"`
	YesBid float64 `json:"yes_bid"`
	YesAsk float64 `json:"yes_ask"`
	Volume int64   `json:"volume"`
	TS     int64   `json:"ts"`
}

// Midpoint returns the yes midpoint in cents, falling back to the
// last traded price when a side is unquoted.
func (t *WSTicker) Midpoint() float64 {
	if t.YesBid > 0 && t.YesAsk > 0 {
		return (t.YesBid + t.YesAsk) / 2
	}
	return t.Price
}

// WSSubscribeCmd is the command sent to subscribe to WebSocket channels.
type WSSubscribeCmd struct {
	ID     int64             `json:"id"`
	Cmd    string            `json:"cmd"` // "subscribe" or "unsubscribe"
	Params WSSubscribeParams `json:"params"`
}

// WSSubscribeParams defines the subscription parameters.
type WSSubscribeParams struct {
	Channels []string `json:"channels"` // e.g. ["ticker"]
	Tickers  []string `json:"market_tickers"`
}
