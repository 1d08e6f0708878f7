package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CANDLE_TTL_SECS", "")
	t.Setenv("FUNDING_TTL_SECS", "")
	t.Setenv("WARMUP_PAIRS", "")
	t.Setenv("WATCHLIST", "")

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Errorf("expected default redis url, got %q", cfg.RedisURL)
	}
	if cfg.CandleTTL != 5*time.Minute || cfg.FundingTTL != 5*time.Minute {
		t.Errorf("expected 5m TTLs, got %v / %v", cfg.CandleTTL, cfg.FundingTTL)
	}
	if len(cfg.WarmupPairs) != 2 {
		t.Fatalf("expected 2 default warmup pairs, got %d", len(cfg.WarmupPairs))
	}
	if cfg.WarmupPairs[0].Symbol != "BTC/USDT" || cfg.WarmupPairs[0].Timeframe != "1h" {
		t.Errorf("unexpected first warmup pair: %+v", cfg.WarmupPairs[0])
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CANDLE_TTL_SECS", "60")
	t.Setenv("FUNDING_TTL_SECS", "120")
	t.Setenv("WARMUP_PAIRS", "SOL/USDT:15m")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.ServerPort)
	}
	if cfg.CandleTTL != time.Minute {
		t.Errorf("expected 1m candle TTL, got %v", cfg.CandleTTL)
	}
	if cfg.FundingTTL != 2*time.Minute {
		t.Errorf("expected 2m funding TTL, got %v", cfg.FundingTTL)
	}
	if len(cfg.WarmupPairs) != 1 || cfg.WarmupPairs[0].Symbol != "SOL/USDT" {
		t.Fatalf("unexpected warmup pairs: %+v", cfg.WarmupPairs)
	}
}

func TestLoadInvalidTTLFallsBack(t *testing.T) {
	t.Setenv("CANDLE_TTL_SECS", "nope")
	t.Setenv("FUNDING_TTL_SECS", "-5")

	cfg := Load()

	if cfg.CandleTTL != 5*time.Minute || cfg.FundingTTL != 5*time.Minute {
		t.Errorf("expected 5m fallback TTLs, got %v / %v", cfg.CandleTTL, cfg.FundingTTL)
	}
}

func TestWatchlistDefaultsToWarmupPairs(t *testing.T) {
	t.Setenv("WARMUP_PAIRS", "BTC/USDT:1h")
	t.Setenv("WATCHLIST", "")

	cfg := Load()

	if len(cfg.Watchlist) != 1 || cfg.Watchlist[0].Symbol != "BTC/USDT" {
		t.Fatalf("unexpected watchlist: %+v", cfg.Watchlist)
	}
}

func TestParsePairsSkipsMalformedEntries(t *testing.T) {
	fallback := []WarmupPair{{Symbol: "BTC/USDT", Timeframe: "1h"}}

	pairs := parsePairs("ETH/USDT:4h,garbage,SOL/USDT:99x,ETH/USDT:4h", fallback)

	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %+v", pairs)
	}
	if pairs[0].Symbol != "ETH/USDT" || pairs[0].Timeframe != "4h" {
		t.Errorf("unexpected pair: %+v", pairs[0])
	}
}

func TestParsePairsAllInvalidFallsBack(t *testing.T) {
	fallback := []WarmupPair{{Symbol: "BTC/USDT", Timeframe: "1h"}}

	pairs := parsePairs("junk,:1h,BTC/USDT:", fallback)

	if len(pairs) != 1 || pairs[0].Symbol != "BTC/USDT" {
		t.Fatalf("expected fallback, got %+v", pairs)
	}
}
