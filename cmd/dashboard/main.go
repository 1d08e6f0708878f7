// Command dashboard serves the terminal dashboard over SSH. Each session
// gets its own bubbletea program wired to the shared signal service.
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/Renxian-Lu/crypto-signal/internal/cache"
	"github.com/Renxian-Lu/crypto-signal/internal/config"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/market"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
	signalengine "github.com/Renxian-Lu/crypto-signal/internal/signal"
	"github.com/Renxian-Lu/crypto-signal/internal/tui"
	"github.com/Renxian-Lu/crypto-signal/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	wishtea "github.com/charmbracelet/wish/bubbletea"
	wishlog "github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
)

const (
	defaultSSHHost = "0.0.0.0"
	defaultSSHPort = "2222"
	hostKeyPath    = ".ssh/dashboard_ed25519"
)

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	newRedisClientFunc = cache.NewRedisClient
	initTracerFunc     = tracing.InitTracer
	newSSHServerFunc   = wish.NewServer
	startSSHServerFunc = func(s *ssh.Server) error { return s.ListenAndServe() }
	setupSignalNotify  = ossignal.Notify
	waitForSignalFunc  = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	marketCache := cache.NewMarketCache(rdb, tracer, cfg.CandleTTL, cfg.FundingTTL)
	binance := market.NewBinanceSource(cfg.BinanceAPIKey, cfg.BinanceAPISecret)
	marketCache.RegisterCandleSource(domain.ExchangeBinance, binance)
	marketCache.RegisterFundingSource(domain.ExchangeBinance, binance)

	signalService := service.NewSignalService(tracer, marketCache, signalengine.NewSynthesizer(), nil)

	host := sshHostFromEnv()
	port := sshPortFromEnv()
	srv, err := newSSHServerFunc(
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			wishtea.Middleware(teaHandler(signalService, cfg.Watchlist)),
			activeterm.Middleware(),
			wishlog.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	go func() {
		log.Printf("Dashboard listening on %s:%s", host, port)
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatalf("ssh listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down dashboard...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Fatalf("ssh shutdown: %v", err)
	}

	log.Println("Dashboard exiting")
}

// teaHandler builds a per-session app model. The signal service is shared
// across sessions; only the model state is per-connection.
func teaHandler(signals tui.SignalQuerier, watchlist []config.WarmupPair) wishtea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		svc := tui.Services{
			Signals:   signals,
			Watchlist: watchlist,
			Username:  s.User(),
		}
		return tui.NewAppModel(svc), []tea.ProgramOption{tea.WithAltScreen()}
	}
}

func sshHostFromEnv() string {
	if host := os.Getenv("SSH_HOST"); host != "" {
		return host
	}
	return defaultSSHHost
}

func sshPortFromEnv() string {
	if port := os.Getenv("SSH_PORT"); port != "" {
		return port
	}
	return defaultSSHPort
}
