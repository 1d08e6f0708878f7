package tui

import (
	"context"

	"github.com/Renxian-Lu/crypto-signal/internal/config"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

// SignalQuerier provides signal and candle data to the TUI.
type SignalQuerier interface {
	GetSignal(ctx context.Context, q service.Query) domain.SignalResult
	GetCandles(ctx context.Context, q service.Query) ([]*domain.Candle, error)
}

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Signals   SignalQuerier
	Watchlist []config.WarmupPair
	Username  string
}
