// Package signal derives a discrete trading action from indicator values,
// the funding rate and price-range levels.
package signal

import (
	"fmt"
	"sort"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/indicator"
)

const (
	rsiOverbought     = 75.0
	rsiOversold       = 40.0
	fundingOverheated = 0.0005
	levelWindow       = 60
)

// Synthesizer applies the rule table combining RSI, funding rate and the MACD
// histogram. Evaluation is a single deterministic pass with no retries.
type Synthesizer struct{}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Calculate produces a SignalResult from a candle series and an optional
// funding snapshot. A nil funding snapshot is evaluated as rate 0 and flagged
// in meta so absence is never silent.
func (s *Synthesizer) Calculate(candles []*domain.Candle, funding *domain.FundingRate, symbol, timeframe string) (domain.SignalResult, error) {
	series := normalizeCandles(candles)
	if len(series) == 0 {
		return domain.SignalResult{}, fmt.Errorf("empty candle series for %s %s", symbol, timeframe)
	}

	closes := extractCloses(series)
	rsi := indicator.RSI(closes, indicator.DefaultRSIPeriod)
	macd := indicator.MACD(closes, indicator.DefaultMACDFast, indicator.DefaultMACDSlow, indicator.DefaultMACDSignal)

	last := len(closes) - 1
	rsiLatest := rsi[last]
	difLatest := macd.DIF[last]
	deaLatest := macd.DEA[last]
	histLatest := macd.Hist[last]

	fundingRate := 0.0
	fundingAvailable := funding != nil
	if fundingAvailable {
		fundingRate = funding.LastFundingRate
	}

	action, reasons := decide(rsiLatest, fundingRate, histLatest)
	support, resistance := priceLevels(series)

	meta := map[string]any{
		"funding_available": fundingAvailable,
		"candles":           len(series),
	}
	if !fundingAvailable {
		meta["funding_note"] = "funding rate unavailable, evaluated as 0"
	}

	return domain.SignalResult{
		Symbol:    symbol,
		Timeframe: timeframe,
		Action:    action,
		Scores: domain.Scores{
			RSI:      rsiLatest,
			Funding:  fundingRate,
			MACDHist: histLatest,
			DIF:      difLatest,
			DEA:      deaLatest,
		},
		Reasons: reasons,
		Levels:  domain.Levels{Support: support, Resistance: resistance},
		Meta:    meta,
	}, nil
}

// decide applies the two-rule table in order; the first match wins.
func decide(rsiLatest, fundingRate, histLatest float64) (domain.Action, []string) {
	if rsiLatest > rsiOverbought && fundingRate > fundingOverheated && histLatest < 0 {
		return domain.ActionSell, []string{
			"RSI>75 overbought",
			"Funding>0.05% long overheated",
			"MACD histogram turned negative, momentum weakening",
		}
	}
	if rsiLatest < rsiOversold && fundingRate < 0 && histLatest > 0 {
		return domain.ActionBuy, []string{
			"RSI<40 oversold",
			"Funding<0 short overheated",
			"MACD histogram turned positive, momentum recovering",
		}
	}
	return domain.ActionWait, []string{"No confluence detected"}
}

// priceLevels computes support and resistance over the trailing window of
// min(60, len) candles.
func priceLevels(candles []*domain.Candle) (support, resistance float64) {
	window := levelWindow
	if len(candles) < window {
		window = len(candles)
	}
	tail := candles[len(candles)-window:]

	support = tail[0].Low
	resistance = tail[0].High
	for _, c := range tail[1:] {
		if c.Low < support {
			support = c.Low
		}
		if c.High > resistance {
			resistance = c.High
		}
	}
	return support, resistance
}

func normalizeCandles(in []*domain.Candle) []*domain.Candle {
	out := make([]*domain.Candle, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out
}

func extractCloses(candles []*domain.Candle) []float64 {
	values := make([]float64, len(candles))
	for i := range candles {
		values[i] = candles[i].Close
	}
	return values
}
