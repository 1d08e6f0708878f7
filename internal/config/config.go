package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
)

// WarmupPair names a symbol/timeframe combination fetched into the cache at startup.
type WarmupPair struct {
	Symbol    string
	Timeframe string
}

type Config struct {
	ServerPort       string
	RedisURL         string
	DatabaseURL      string
	TelegramBotToken string

	BinanceAPIKey    string
	BinanceAPISecret string

	CandleTTL  time.Duration
	FundingTTL time.Duration

	WarmupPairs []WarmupPair
	Watchlist   []WarmupPair

	AlertPollSecs int
}

func Load() *Config {
	cfg := &Config{
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),
	}

	cfg.ServerPort = strings.TrimSpace(os.Getenv("SERVER_PORT"))
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, candle archive disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, alerts disabled")
	}

	cfg.CandleTTL = 300 * time.Second
	if v := strings.TrimSpace(os.Getenv("CANDLE_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CandleTTL = time.Duration(n) * time.Second
		}
	}

	cfg.FundingTTL = 300 * time.Second
	if v := strings.TrimSpace(os.Getenv("FUNDING_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FundingTTL = time.Duration(n) * time.Second
		}
	}

	cfg.AlertPollSecs = 300
	if v := strings.TrimSpace(os.Getenv("ALERT_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AlertPollSecs = n
		}
	}

	cfg.WarmupPairs = parsePairs(os.Getenv("WARMUP_PAIRS"), []WarmupPair{
		{Symbol: "BTC/USDT", Timeframe: "1h"},
		{Symbol: "ETH/USDT", Timeframe: "4h"},
	})

	cfg.Watchlist = parsePairs(os.Getenv("WATCHLIST"), cfg.WarmupPairs)

	return cfg
}

// parsePairs reads a comma-separated list of SYMBOL:TIMEFRAME entries,
// e.g. "BTC/USDT:1h,ETH/USDT:4h". Entries with unsupported timeframes
// are skipped with a warning.
func parsePairs(raw string, fallback []WarmupPair) []WarmupPair {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	out := make([]WarmupPair, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		idx := strings.LastIndex(entry, ":")
		if idx <= 0 || idx == len(entry)-1 {
			log.Printf("Warning: skipping malformed pair %q", entry)
			continue
		}
		symbol := strings.TrimSpace(entry[:idx])
		timeframe := strings.TrimSpace(entry[idx+1:])
		if !domain.IsSupportedTimeframe(timeframe) {
			log.Printf("Warning: skipping pair %q, unsupported timeframe", entry)
			continue
		}
		key := symbol + ":" + timeframe
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, WarmupPair{Symbol: symbol, Timeframe: timeframe})
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
