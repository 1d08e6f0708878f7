package bot

import (
	"strings"
	"testing"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
)

func TestParseSignalArgs(t *testing.T) {
	q, err := parseSignalArgs([]string{"btc/usdt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Symbol != "BTCUSDT" || q.Timeframe != "1h" {
		t.Fatalf("unexpected query: %+v", q)
	}

	q, err = parseSignalArgs([]string{"ETH/USDT", "4h"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Symbol != "ETHUSDT" || q.Timeframe != "4h" {
		t.Fatalf("unexpected query: %+v", q)
	}
}

func TestParseSignalArgsErrors(t *testing.T) {
	if _, err := parseSignalArgs(nil); err == nil {
		t.Fatal("expected error for missing symbol")
	}
	if _, err := parseSignalArgs([]string{"BTC/USDT", "3m"}); err == nil {
		t.Fatal("expected error for bad timeframe")
	}
	if _, err := parseSignalArgs([]string{"BTC/USDT", "1h", "extra"}); err == nil {
		t.Fatal("expected error for extra args")
	}
}

func TestFormatResult(t *testing.T) {
	msg := FormatResult(sellResult())

	if !strings.Contains(msg, "BTCUSDT 1h: SELL") {
		t.Fatalf("missing header: %s", msg)
	}
	if !strings.Contains(msg, "RSI 81.2") {
		t.Fatalf("missing scores: %s", msg)
	}
	if !strings.Contains(msg, "Support 58000.00 / Resistance 63000.00") {
		t.Fatalf("missing levels: %s", msg)
	}
	if !strings.Contains(msg, "- RSI>75 overbought") {
		t.Fatalf("missing reason: %s", msg)
	}
}

func TestFormatResultOmitsZeroLevels(t *testing.T) {
	msg := FormatResult(domain.SignalResult{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Action:    domain.ActionWait,
		Reasons:   []string{"No confluence detected"},
	})
	if strings.Contains(msg, "Support") {
		t.Fatalf("did not expect levels line: %s", msg)
	}
}
