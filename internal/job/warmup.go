package job

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/trace"

	"github.com/Renxian-Lu/crypto-signal/internal/config"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

// CandleFetcher is the slice of the signal service the warmup needs.
type CandleFetcher interface {
	GetCandles(ctx context.Context, q service.Query) ([]*domain.Candle, error)
}

// Warmup pre-fills the market cache for a fixed set of pairs so the first
// requests after startup hit warm data. Failures are logged and skipped;
// warming must never stop the service from coming up.
type Warmup struct {
	tracer  trace.Tracer
	fetcher CandleFetcher
	pairs   []config.WarmupPair
}

func NewWarmup(tracer trace.Tracer, fetcher CandleFetcher, pairs []config.WarmupPair) *Warmup {
	return &Warmup{
		tracer:  tracer,
		fetcher: fetcher,
		pairs:   pairs,
	}
}

func (w *Warmup) Run(ctx context.Context) {
	ctx, span := w.tracer.Start(ctx, "job.cache-warmup")
	defer span.End()

	for _, pair := range w.pairs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		q := service.Query{Symbol: pair.Symbol, Timeframe: pair.Timeframe}
		if _, err := w.fetcher.GetCandles(ctx, q); err != nil {
			log.Printf("cache warmup failed for %s %s: %v", pair.Symbol, pair.Timeframe, err)
			continue
		}
		log.Printf("cache warmed for %s %s", pair.Symbol, pair.Timeframe)
	}
}
