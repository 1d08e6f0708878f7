package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/indicator"
)

const (
	DefaultTimeframe = "1h"
	DefaultLimit     = 300
	DefaultExchange  = domain.ExchangeBinance
	maxLimit         = 1000
)

// MarketData is the cache-backed view of upstream market data.
type MarketData interface {
	Candles(ctx context.Context, symbol, timeframe string, limit int, exchange string) ([]*domain.Candle, error)
	FundingRate(ctx context.Context, symbol, exchange string) (*domain.FundingRate, error)
}

// Synthesizer turns a candle series plus funding snapshot into a SignalResult.
type Synthesizer interface {
	Calculate(candles []*domain.Candle, funding *domain.FundingRate, symbol, timeframe string) (domain.SignalResult, error)
}

// CandleArchive persists fetched candles. Optional; nil disables archiving.
type CandleArchive interface {
	UpsertCandles(ctx context.Context, candles []*domain.Candle) error
	GetCandlesInRange(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]*domain.Candle, error)
}

// Query identifies one market data request.
type Query struct {
	Symbol    string
	Timeframe string
	Limit     int
	Exchange  string
}

// Normalize applies defaults and canonical symbol form.
func (q Query) Normalize() Query {
	q.Symbol = domain.NormalizeSymbol(q.Symbol)
	if q.Timeframe == "" {
		q.Timeframe = DefaultTimeframe
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Exchange == "" {
		q.Exchange = DefaultExchange
	}
	return q
}

func (q Query) validate() error {
	if q.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !domain.IsSupportedTimeframe(q.Timeframe) {
		return fmt.Errorf("unsupported timeframe: %s", q.Timeframe)
	}
	if q.Limit > maxLimit {
		return fmt.Errorf("limit must be at most %d", maxLimit)
	}
	return nil
}

// IndicatorSet is the indicator listing payload; only requested kinds are set.
type IndicatorSet struct {
	Symbol    string      `json:"symbol"`
	Timeframe string      `json:"timeframe"`
	Exchange  string      `json:"exchange"`
	RSI       []float64   `json:"RSI,omitempty"`
	MACD      *MACDSeries `json:"MACD,omitempty"`
}

type MACDSeries struct {
	DIF  []float64 `json:"dif"`
	DEA  []float64 `json:"dea"`
	Hist []float64 `json:"hist"`
}

// SignalService serves every consumer of the pipeline: HTTP routes, the
// websocket stream, the telegram bot and the dashboard all go through the
// same synthesizer here, so their outputs always agree.
type SignalService struct {
	tracer  trace.Tracer
	market  MarketData
	synth   Synthesizer
	archive CandleArchive
}

func NewSignalService(tracer trace.Tracer, market MarketData, synth Synthesizer, archive CandleArchive) *SignalService {
	return &SignalService{
		tracer:  tracer,
		market:  market,
		synth:   synth,
		archive: archive,
	}
}

// GetCandles returns the cached candle series for the query and archives it
// when an archive is configured.
func (s *SignalService) GetCandles(ctx context.Context, q Query) ([]*domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-candles")
	defer span.End()

	q = q.Normalize()
	if err := q.validate(); err != nil {
		return nil, err
	}

	candles, err := s.market.Candles(ctx, q.Symbol, q.Timeframe, q.Limit, q.Exchange)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.UpsertCandles(ctx, candles); err != nil {
			log.Printf("candle archive write failed for %s %s: %v", q.Symbol, q.Timeframe, err)
		}
	}
	return candles, nil
}

// GetIndicators computes the requested indicator series over the query's
// close prices. Kinds come pre-validated from domain.ParseIndicators.
func (s *SignalService) GetIndicators(ctx context.Context, q Query, kinds []domain.IndicatorKind) (*IndicatorSet, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-indicators")
	defer span.End()

	q = q.Normalize()
	candles, err := s.GetCandles(ctx, q)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	out := &IndicatorSet{Symbol: q.Symbol, Timeframe: q.Timeframe, Exchange: q.Exchange}
	for _, kind := range kinds {
		switch kind {
		case domain.IndicatorRSI:
			out.RSI = indicator.RSI(closes, indicator.DefaultRSIPeriod)
		case domain.IndicatorMACD:
			res := indicator.MACD(closes, indicator.DefaultMACDFast, indicator.DefaultMACDSlow, indicator.DefaultMACDSignal)
			out.MACD = &MACDSeries{DIF: res.DIF, DEA: res.DEA, Hist: res.Hist}
		}
	}
	return out, nil
}

// GetFunding returns the funding snapshot for the symbol, or
// domain.ErrUnsupportedExchange / a wrapped upstream error.
func (s *SignalService) GetFunding(ctx context.Context, symbol, exchange string) (*domain.FundingRate, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-funding")
	defer span.End()

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	return s.market.FundingRate(ctx, symbol, exchange)
}

// GetHistory reads archived candles between two instants. It never touches
// the upstream exchanges; only data previously archived through GetCandles
// is visible here.
func (s *SignalService) GetHistory(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]*domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-history")
	defer span.End()

	if s.archive == nil {
		return nil, fmt.Errorf("candle archive is not configured")
	}
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !domain.IsSupportedTimeframe(timeframe) {
		return nil, fmt.Errorf("unsupported timeframe: %s", timeframe)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("to must be after from")
	}
	return s.archive.GetCandlesInRange(ctx, symbol, timeframe, from, to)
}

// GetSignal runs the full pipeline. Failures never escape: any error is
// converted into a wait result carrying the failure reason and an error
// marker in meta.
func (s *SignalService) GetSignal(ctx context.Context, q Query) domain.SignalResult {
	ctx, span := s.tracer.Start(ctx, "signal-service.get-signal")
	defer span.End()

	q = q.Normalize()
	if err := q.validate(); err != nil {
		return degradedResult(q, err)
	}

	candles, err := s.GetCandles(ctx, q)
	if err != nil {
		return degradedResult(q, err)
	}

	// Funding absence degrades the input, not the whole signal: the
	// synthesizer evaluates a nil snapshot as rate 0 and flags it.
	funding, err := s.market.FundingRate(ctx, q.Symbol, q.Exchange)
	if err != nil {
		if !errors.Is(err, domain.ErrUnsupportedExchange) {
			log.Printf("funding unavailable for %s on %s: %v", q.Symbol, q.Exchange, err)
		}
		funding = nil
	}

	result, err := s.synth.Calculate(candles, funding, q.Symbol, q.Timeframe)
	if err != nil {
		return degradedResult(q, err)
	}

	result.Meta["limit"] = q.Limit
	result.Meta["exchange"] = q.Exchange
	return result
}

func degradedResult(q Query, err error) domain.SignalResult {
	return domain.SignalResult{
		Symbol:    q.Symbol,
		Timeframe: q.Timeframe,
		Action:    domain.ActionWait,
		Reasons:   []string{fmt.Sprintf("Signal calculation failed: %v", err)},
		Meta: map[string]any{
			"limit":    q.Limit,
			"exchange": q.Exchange,
			"error":    err.Error(),
		},
	}
}
