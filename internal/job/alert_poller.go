package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Renxian-Lu/crypto-signal/internal/config"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

// SignalEvaluator computes the current signal for one pair.
type SignalEvaluator interface {
	GetSignal(ctx context.Context, q service.Query) domain.SignalResult
}

// AlertSink receives actionable results. Wait results are filtered out
// before this is called.
type AlertSink interface {
	Dispatch(ctx context.Context, result domain.SignalResult)
}

// AlertPoller periodically evaluates the watchlist and forwards buy/sell
// results to the sink.
type AlertPoller struct {
	tracer    trace.Tracer
	evaluator SignalEvaluator
	sink      AlertSink
	watchlist []config.WarmupPair
	interval  time.Duration
}

func NewAlertPoller(
	tracer trace.Tracer,
	evaluator SignalEvaluator,
	sink AlertSink,
	watchlist []config.WarmupPair,
	interval time.Duration,
) *AlertPoller {
	return &AlertPoller{
		tracer:    tracer,
		evaluator: evaluator,
		sink:      sink,
		watchlist: watchlist,
		interval:  interval,
	}
}

// Start blocks until ctx is cancelled.
func (p *AlertPoller) Start(ctx context.Context) {
	if p.sink == nil || len(p.watchlist) == 0 {
		log.Println("Alert poller disabled: no sink or empty watchlist")
		<-ctx.Done()
		return
	}

	log.Println("Alert poller starting...")
	p.evaluateWatchlist(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Alert poller stopped")
			return
		case <-ticker.C:
			p.evaluateWatchlist(ctx)
		}
	}
}

func (p *AlertPoller) evaluateWatchlist(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "job.evaluate-watchlist")
	defer span.End()

	for _, pair := range p.watchlist {
		select {
		case <-ctx.Done():
			return
		default:
		}

		q := service.Query{Symbol: pair.Symbol, Timeframe: pair.Timeframe}
		result := p.evaluator.GetSignal(ctx, q)
		if result.Action == domain.ActionWait {
			continue
		}
		p.sink.Dispatch(ctx, result)
	}
}
