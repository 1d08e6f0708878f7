package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// ActionStyle returns the lipgloss style for a signal action.
func ActionStyle(action domain.Action) lipgloss.Style {
	switch action {
	case domain.ActionBuy:
		return ActionBuyStyle
	case domain.ActionSell:
		return ActionSellStyle
	default:
		return ActionWaitStyle
	}
}

// FormatResultRow renders one signal result as a single table line.
func FormatResultRow(r domain.SignalResult) string {
	return fmt.Sprintf("%-10s %-4s %s  RSI %5.1f  Fund %8.4f%%  Hist %8.4f",
		r.Symbol,
		r.Timeframe,
		ActionStyle(r.Action).Render(fmt.Sprintf("%-4s", strings.ToUpper(string(r.Action)))),
		r.Scores.RSI,
		r.Scores.Funding*100,
		r.Scores.MACDHist,
	)
}

// RenderSparkline maps a value series onto block runes, resampled to width.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return SubtextStyle.Render("no data")
	}
	if len(values) > width {
		values = resample(values, width)
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if maxV > minV {
			idx = int((v - minV) / (maxV - minV) * float64(len(sparkRunes)-1))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkRunes) {
			idx = len(sparkRunes) - 1
		}
		b.WriteRune(sparkRunes[idx])
	}
	return SparkStyle.Render(b.String())
}

func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		out[i] = values[int(math.Round(pos))]
	}
	return out
}

func formatPrice(v float64) string {
	if v >= 1000 {
		return addCommas(fmt.Sprintf("%.0f", v))
	}
	if v >= 1 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

func addCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	return result.String()
}
