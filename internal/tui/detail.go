package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Renxian-Lu/crypto-signal/internal/config"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

// Detail message types.
type detailMsg struct {
	result  domain.SignalResult
	candles []*domain.Candle
}
type detailErrMsg struct{ err error }

// DetailModel shows one pair: close sparkline, levels and reasons.
type DetailModel struct {
	services Services
	pair     config.WarmupPair
	result   domain.SignalResult
	closes   []float64
	loading  bool
	err      error
	width    int
	height   int
}

func NewDetailModel(svc Services) DetailModel {
	m := DetailModel{services: svc, loading: true}
	if len(svc.Watchlist) > 0 {
		m.pair = svc.Watchlist[0]
	}
	return m
}

func (m DetailModel) Init() tea.Cmd {
	return m.fetchDetailCmd()
}

// SetPair switches the shown pair and refetches.
func (m *DetailModel) SetPair(pair config.WarmupPair) tea.Cmd {
	if pair == m.pair {
		return nil
	}
	m.pair = pair
	m.loading = true
	return m.fetchDetailCmd()
}

func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case detailMsg:
		m.result = msg.result
		m.closes = make([]float64, len(msg.candles))
		for i, c := range msg.candles {
			m.closes[i] = c.Close
		}
		m.loading = false
		m.err = nil
		return m, nil

	case detailErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "R" {
			return m, m.fetchDetailCmd()
		}
		return m, nil
	}

	return m, nil
}

func (m DetailModel) View() string {
	if m.pair.Symbol == "" {
		return SubtextStyle.Render("Watchlist is empty")
	}
	if m.loading && len(m.closes) == 0 {
		return SubtextStyle.Render(fmt.Sprintf("Loading %s %s...", m.pair.Symbol, m.pair.Timeframe))
	}
	if m.err != nil && len(m.closes) == 0 {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	width := m.width - 2
	if width < 60 {
		width = 60
	}
	sparkWidth := width - 6
	if sparkWidth > len(m.closes) {
		sparkWidth = len(m.closes)
	}

	var lines []string
	lines = append(lines, HeaderStyle.Render(fmt.Sprintf("  %s %s  %s",
		m.result.Symbol,
		m.result.Timeframe,
		ActionStyle(m.result.Action).Render(strings.ToUpper(string(m.result.Action))))))
	lines = append(lines, "")
	lines = append(lines, "  "+RenderSparkline(m.closes, sparkWidth))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("  RSI %.1f  Funding %.4f%%  MACD hist %.4f",
		m.result.Scores.RSI, m.result.Scores.Funding*100, m.result.Scores.MACDHist))
	lines = append(lines,
		"  "+SupportStyle.Render(fmt.Sprintf("Support %s", formatPrice(m.result.Levels.Support)))+
			"  "+ResistanceStyle.Render(fmt.Sprintf("Resistance %s", formatPrice(m.result.Levels.Resistance))))
	for _, reason := range m.result.Reasons {
		lines = append(lines, SubtextStyle.Render("  - "+reason))
	}

	return BorderStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *DetailModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Pair returns the shown pair (for testing).
func (m DetailModel) Pair() config.WarmupPair { return m.pair }

func (m DetailModel) fetchDetailCmd() tea.Cmd {
	pair := m.pair
	return func() tea.Msg {
		if m.services.Signals == nil {
			return detailErrMsg{err: fmt.Errorf("signal service not available")}
		}
		if pair.Symbol == "" {
			return detailErrMsg{err: fmt.Errorf("watchlist is empty")}
		}
		q := service.Query{Symbol: pair.Symbol, Timeframe: pair.Timeframe}
		candles, err := m.services.Signals.GetCandles(context.Background(), q)
		if err != nil {
			return detailErrMsg{err: err}
		}
		return detailMsg{
			result:  m.services.Signals.GetSignal(context.Background(), q),
			candles: candles,
		}
	}
}
