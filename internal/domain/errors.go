package domain

import "errors"

var (
	// ErrDataUnavailable means the upstream candle fetch returned zero rows.
	ErrDataUnavailable = errors.New("no market data available")

	// ErrUnsupportedExchange means no upstream integration exists for the
	// requested exchange. Distinct from a failed fetch.
	ErrUnsupportedExchange = errors.New("unsupported exchange")

	// ErrUpstreamFailure wraps network or exchange errors on either fetch.
	ErrUpstreamFailure = errors.New("upstream fetch failed")
)
