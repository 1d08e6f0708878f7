package domain

import (
	"strings"
	"time"
)

type Candle struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	OpenTime  time.Time `json:"ts"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// FundingRate is a point-in-time funding snapshot for a perpetual contract.
type FundingRate struct {
	Symbol          string  `json:"symbol"`
	MarkPrice       float64 `json:"markPrice"`
	LastFundingRate float64 `json:"lastFundingRate"`
	NextFundingTime int64   `json:"nextFundingTime"`
	Time            int64   `json:"time"`
}

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionWait Action = "wait"
)

// Scores carries the latest scalar value of each signal input.
type Scores struct {
	RSI      float64 `json:"rsi"`
	Funding  float64 `json:"funding"`
	MACDHist float64 `json:"macd_hist"`
	DIF      float64 `json:"dif"`
	DEA      float64 `json:"dea"`
}

type Levels struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// SignalResult is the stable contract consumed by the API, the bot, the
// websocket stream and the dashboard. Produced fresh on every request.
type SignalResult struct {
	Symbol    string         `json:"symbol"`
	Timeframe string         `json:"timeframe"`
	Action    Action         `json:"action"`
	Scores    Scores         `json:"scores"`
	Reasons   []string       `json:"reasons"`
	Levels    Levels         `json:"levels"`
	Meta      map[string]any `json:"meta"`
}

// IndicatorKind enumerates the selectable indicator outputs.
type IndicatorKind string

const (
	IndicatorRSI  IndicatorKind = "rsi"
	IndicatorMACD IndicatorKind = "macd"
)

var AllIndicators = []IndicatorKind{IndicatorRSI, IndicatorMACD}

func (k IndicatorKind) IsValid() bool {
	return k == IndicatorRSI || k == IndicatorMACD
}

// ParseIndicators resolves a comma-separated request value into the enumerated
// indicator set. Empty input selects every indicator. The second return value
// names the first unknown indicator, if any.
func ParseIndicators(raw string) ([]IndicatorKind, string) {
	if strings.TrimSpace(raw) == "" {
		return AllIndicators, ""
	}
	parts := strings.Split(raw, ",")
	out := make([]IndicatorKind, 0, len(parts))
	seen := make(map[IndicatorKind]struct{}, len(parts))
	for _, part := range parts {
		kind := IndicatorKind(strings.ToLower(strings.TrimSpace(part)))
		if kind == "" {
			continue
		}
		if !kind.IsValid() {
			return nil, string(kind)
		}
		if _, ok := seen[kind]; ok {
			continue
		}
		seen[kind] = struct{}{}
		out = append(out, kind)
	}
	if len(out) == 0 {
		return AllIndicators, ""
	}
	return out, ""
}

const ExchangeBinance = "binance"

var SupportedExchanges = []string{ExchangeBinance}

var SupportedTimeframes = []string{"5m", "15m", "1h", "4h", "1d"}

func IsSupportedTimeframe(tf string) bool {
	for _, t := range SupportedTimeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// NormalizeSymbol maps pair notation ("eth/usdt") to the exchange form
// ("ETHUSDT").
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
}
