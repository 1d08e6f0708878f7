package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/Renxian-Lu/crypto-signal/internal/bot"
	"github.com/Renxian-Lu/crypto-signal/internal/cache"
	"github.com/Renxian-Lu/crypto-signal/internal/chart"
	"github.com/Renxian-Lu/crypto-signal/internal/config"
	"github.com/Renxian-Lu/crypto-signal/internal/db"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/handler"
	"github.com/Renxian-Lu/crypto-signal/internal/job"
	"github.com/Renxian-Lu/crypto-signal/internal/market"
	"github.com/Renxian-Lu/crypto-signal/internal/repository"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
	signalengine "github.com/Renxian-Lu/crypto-signal/internal/signal"
	"github.com/Renxian-Lu/crypto-signal/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/Renxian-Lu/crypto-signal/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newPostgresPoolFunc    = db.NewPostgresPool
	newRedisClientFunc     = cache.NewRedisClient
	initTracerFunc         = tracing.InitTracer
	newCandleRepoFunc      = repository.NewCandleRepository
	newBinanceSourceFunc   = market.NewBinanceSource
	newMarketCacheFunc     = cache.NewMarketCache
	newSynthesizerFunc     = signalengine.NewSynthesizer
	newSignalServiceFunc   = service.NewSignalService
	newChartRendererFunc   = chart.NewRenderer
	newWarmupFunc          = job.NewWarmup
	startWarmupFunc        = func(w *job.Warmup, ctx context.Context) { go w.Run(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newAlertPollerFunc     = job.NewAlertPoller
	startAlertPollerFunc   = func(p *job.AlertPoller, ctx context.Context) { go p.Start(ctx) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Crypto Signal API
// @version         1.0
// @description     Trading signal service with cached market data and indicator pipeline.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := newPostgresPoolFunc(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	rdb, err := newRedisClientFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Candle archive is optional; without Postgres the service runs
	// cache-only and /api/history returns 503.
	var archive service.CandleArchive
	if pool != nil {
		repo := newCandleRepoFunc(pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		archive = repo
	}

	marketCache := newMarketCacheFunc(rdb, tracer, cfg.CandleTTL, cfg.FundingTTL)
	binance := newBinanceSourceFunc(cfg.BinanceAPIKey, cfg.BinanceAPISecret)
	marketCache.RegisterCandleSource(domain.ExchangeBinance, binance)
	marketCache.RegisterFundingSource(domain.ExchangeBinance, binance)

	signalService := newSignalServiceFunc(tracer, marketCache, newSynthesizerFunc(), archive)
	renderer := newChartRendererFunc()

	// Warm the cache for the default pairs so first requests hit warm data.
	warmup := newWarmupFunc(tracer, signalService, cfg.WarmupPairs)
	startWarmupFunc(warmup, ctx)

	// Telegram bot doubles as the alert sink for the watchlist poller.
	dispatcher := startTelegramBotFunc(cfg.TelegramBotToken, signalService, renderer)
	var sink job.AlertSink
	if dispatcher != nil {
		sink = dispatcher
	}
	poller := newAlertPollerFunc(tracer, signalService, sink, cfg.Watchlist, time.Duration(cfg.AlertPollSecs)*time.Second)
	startAlertPollerFunc(poller, ctx)

	h := newHandlerFunc(tracer, signalService, renderer)

	r := newRouterFunc()
	r.Use(cors.Default())
	r.Use(otelgin.Middleware("crypto-signal"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
