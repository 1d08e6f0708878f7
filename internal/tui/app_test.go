package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Renxian-Lu/crypto-signal/internal/config"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

type stubSignalQuerier struct {
	result  domain.SignalResult
	candles []*domain.Candle
	err     error
}

func (s *stubSignalQuerier) GetSignal(ctx context.Context, q service.Query) domain.SignalResult {
	r := s.result
	if r.Symbol == "" {
		r.Symbol = domain.NormalizeSymbol(q.Symbol)
		r.Timeframe = q.Timeframe
		r.Action = domain.ActionWait
	}
	return r
}

func (s *stubSignalQuerier) GetCandles(ctx context.Context, q service.Query) ([]*domain.Candle, error) {
	return s.candles, s.err
}

func testCandles(n int) []*domain.Candle {
	base := time.Unix(0, 0).UTC()
	out := make([]*domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &domain.Candle{
			Symbol:    "BTCUSDT",
			Timeframe: "1h",
			OpenTime:  base.Add(time.Duration(i) * time.Hour),
			Close:     100 + float64(i%9),
		})
	}
	return out
}

func testServices() Services {
	return Services{
		Signals: &stubSignalQuerier{candles: testCandles(50)},
		Watchlist: []config.WarmupPair{
			{Symbol: "BTC/USDT", Timeframe: "1h"},
			{Symbol: "ETH/USDT", Timeframe: "4h"},
		},
		Username: "testuser",
	}
}

func TestAppModelInitialTab(t *testing.T) {
	m := NewAppModel(testServices())
	if m.ActiveTab() != TabDashboard {
		t.Fatalf("expected TabDashboard, got %d", m.ActiveTab())
	}
}

func TestAppModelTabSwitchByNumber(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	app := updated.(AppModel)
	if app.ActiveTab() != TabDetail {
		t.Fatalf("expected TabDetail after pressing 2, got %d", app.ActiveTab())
	}

	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	app = updated.(AppModel)
	if app.ActiveTab() != TabDashboard {
		t.Fatalf("expected TabDashboard after pressing 1, got %d", app.ActiveTab())
	}
}

func TestAppModelTabSwitchByTab(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	app := updated.(AppModel)
	if app.ActiveTab() != TabDetail {
		t.Fatalf("expected TabDetail after Tab, got %d", app.ActiveTab())
	}

	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = updated.(AppModel)
	if app.ActiveTab() != TabDashboard {
		t.Fatalf("expected TabDashboard after Shift+Tab, got %d", app.ActiveTab())
	}
}

func TestAppModelWindowResize(t *testing.T) {
	m := NewAppModel(testServices())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	app := updated.(AppModel)
	if app.width != 100 || app.height != 50 {
		t.Fatalf("expected 100x50, got %dx%d", app.width, app.height)
	}
}

func TestAppModelViewRendersWithoutPanic(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	for _, tab := range []Tab{TabDashboard, TabDetail} {
		m.activeTab = tab
		view := m.View()
		if view == "" {
			t.Fatalf("expected non-empty view for tab %d", tab)
		}
	}
}

func TestAppModelQuit(t *testing.T) {
	m := NewAppModel(testServices())

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	app := updated.(AppModel)
	if !app.quitting {
		t.Fatal("expected quitting flag")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestDetailFollowsDashboardSelection(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	app := updated.(AppModel)
	app.dashboard.results = []domain.SignalResult{
		{Symbol: "BTCUSDT", Timeframe: "1h"},
		{Symbol: "ETHUSDT", Timeframe: "4h"},
	}
	app.dashboard.selected = 1

	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	app = updated.(AppModel)
	if app.detail.Pair().Symbol != "ETH/USDT" {
		t.Fatalf("expected detail pair ETH/USDT, got %+v", app.detail.Pair())
	}
}
