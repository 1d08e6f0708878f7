package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
)

func TestRenderSparklineWidth(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i % 13)
	}

	spark := RenderSparkline(values, 40)
	plain := stripANSI(spark)
	if utf8.RuneCountInString(plain) != 40 {
		t.Fatalf("expected 40 runes, got %d: %q", utf8.RuneCountInString(plain), plain)
	}
}

func TestRenderSparklineFlatSeries(t *testing.T) {
	spark := stripANSI(RenderSparkline([]float64{5, 5, 5, 5}, 10))
	for _, r := range spark {
		if r != sparkRunes[0] {
			t.Fatalf("expected flat sparkline, got %q", spark)
		}
	}
}

func TestRenderSparklineEmpty(t *testing.T) {
	if !strings.Contains(RenderSparkline(nil, 10), "no data") {
		t.Fatal("expected no data placeholder")
	}
}

func TestFormatResultRow(t *testing.T) {
	row := stripANSI(FormatResultRow(domain.SignalResult{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Action:    domain.ActionBuy,
		Scores:    domain.Scores{RSI: 35.2, Funding: -0.0002, MACDHist: 0.42},
	}))

	if !strings.Contains(row, "BTCUSDT") || !strings.Contains(row, "BUY") {
		t.Fatalf("unexpected row: %q", row)
	}
	if !strings.Contains(row, "RSI  35.2") {
		t.Fatalf("missing rsi: %q", row)
	}
}

func TestActionStyle(t *testing.T) {
	if ActionStyle(domain.ActionBuy).GetForeground() != ActionBuyStyle.GetForeground() {
		t.Fatal("expected buy style")
	}
	if ActionStyle(domain.ActionSell).GetForeground() != ActionSellStyle.GetForeground() {
		t.Fatal("expected sell style")
	}
	if ActionStyle(domain.ActionWait).GetForeground() != ActionWaitStyle.GetForeground() {
		t.Fatal("expected wait style")
	}
}

func TestFormatPrice(t *testing.T) {
	if got := formatPrice(63250); got != "63,250" {
		t.Fatalf("expected 63,250, got %q", got)
	}
	if got := formatPrice(1.5); got != "1.50" {
		t.Fatalf("expected 1.50, got %q", got)
	}
	if got := formatPrice(0.0423); got != "0.0423" {
		t.Fatalf("expected 0.0423, got %q", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
