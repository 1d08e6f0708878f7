// Package market implements upstream exchange connectivity for candles and
// funding rates. Binance USD-M futures is the only integrated exchange.
package market

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
)

type BinanceSource struct {
	client *futures.Client
}

func NewBinanceSource(apiKey, apiSecret string) *BinanceSource {
	return &BinanceSource{client: futures.NewClient(apiKey, apiSecret)}
}

// Candles fetches the limit most recent klines, oldest first.
func (s *BinanceSource) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]*domain.Candle, error) {
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, timeframe, err)
	}

	candles := make([]*domain.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := klineToCandle(symbol, timeframe, k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// FundingRate fetches the current premium index snapshot for symbol.
func (s *BinanceSource) FundingRate(ctx context.Context, symbol string) (*domain.FundingRate, error) {
	rates, err := s.client.NewPremiumIndexService().
		Symbol(symbol).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance premium index %s: %w", symbol, err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("binance premium index %s: empty response", symbol)
	}

	idx := rates[0]
	markPrice, err := parseFloat("markPrice", idx.MarkPrice)
	if err != nil {
		return nil, err
	}
	lastRate, err := parseFloat("lastFundingRate", idx.LastFundingRate)
	if err != nil {
		return nil, err
	}

	return &domain.FundingRate{
		Symbol:          idx.Symbol,
		MarkPrice:       markPrice,
		LastFundingRate: lastRate,
		NextFundingTime: idx.NextFundingTime,
		Time:            idx.Time,
	}, nil
}

func klineToCandle(symbol, timeframe string, k *futures.Kline) (*domain.Candle, error) {
	open, err := parseFloat("open", k.Open)
	if err != nil {
		return nil, err
	}
	high, err := parseFloat("high", k.High)
	if err != nil {
		return nil, err
	}
	low, err := parseFloat("low", k.Low)
	if err != nil {
		return nil, err
	}
	closePrice, err := parseFloat("close", k.Close)
	if err != nil {
		return nil, err
	}
	volume, err := parseFloat("volume", k.Volume)
	if err != nil {
		return nil, err
	}

	return &domain.Candle{
		Symbol:    symbol,
		Timeframe: timeframe,
		OpenTime:  time.UnixMilli(k.OpenTime).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

func parseFloat(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return v, nil
}
