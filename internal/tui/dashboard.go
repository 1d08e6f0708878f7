package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

// Dashboard message types.
type resultsMsg []domain.SignalResult
type resultsErrMsg struct{ err error }
type dashTickMsg time.Time

// DashboardModel shows the watchlist with the current signal per pair.
type DashboardModel struct {
	services Services
	results  []domain.SignalResult
	selected int
	loading  bool
	err      error
	width    int
	height   int
}

func NewDashboardModel(svc Services) DashboardModel {
	return DashboardModel{
		services: svc,
		loading:  true,
	}
}

// Init fires the initial watchlist evaluation.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchResultsCmd(),
		m.tickCmd(),
	)
}

func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case resultsMsg:
		m.results = []domain.SignalResult(msg)
		m.loading = false
		m.err = nil
		if m.selected >= len(m.results) {
			m.selected = 0
		}
		return m, nil

	case resultsErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case dashTickMsg:
		return m, tea.Batch(
			m.fetchResultsCmd(),
			m.tickCmd(),
		)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.results)-1 {
				m.selected++
			}
		case "R":
			return m, m.fetchResultsCmd()
		}
		return m, nil
	}

	return m, nil
}

func (m DashboardModel) View() string {
	if m.loading && len(m.results) == 0 {
		return SubtextStyle.Render("Evaluating watchlist...")
	}
	if m.err != nil && len(m.results) == 0 {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	width := m.width - 2
	if width < 60 {
		width = 60
	}

	table := BorderStyle.Width(width).Render(m.renderTable())
	detail := BorderStyle.Width(width).Render(m.renderSelected())
	return lipgloss.JoinVertical(lipgloss.Left, table, detail)
}

func (m *DashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Results returns the current results (for testing).
func (m DashboardModel) Results() []domain.SignalResult { return m.results }

// Selected returns the selected watchlist entry (for testing).
func (m DashboardModel) Selected() int { return m.selected }

func (m DashboardModel) renderTable() string {
	var lines []string
	lines = append(lines, HeaderStyle.Render("  Watchlist"))
	lines = append(lines, SubtextStyle.Render("  Symbol     TF   Action  RSI   Funding      MACD hist"))
	lines = append(lines, SubtextStyle.Render(strings.Repeat("─", 60)))

	for i, r := range m.results {
		line := "  " + FormatResultRow(r)
		if i == m.selected {
			line = SelectedStyle.Render("> ") + FormatResultRow(r)
		}
		lines = append(lines, line)
	}
	if len(m.results) == 0 {
		lines = append(lines, SubtextStyle.Render("  Watchlist is empty"))
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderSelected() string {
	if m.selected >= len(m.results) {
		return SubtextStyle.Render("  Nothing selected")
	}
	r := m.results[m.selected]

	var lines []string
	lines = append(lines, HeaderStyle.Render(fmt.Sprintf("  %s %s", r.Symbol, r.Timeframe)))
	lines = append(lines,
		"  "+SupportStyle.Render(fmt.Sprintf("Support %s", formatPrice(r.Levels.Support)))+
			"  "+ResistanceStyle.Render(fmt.Sprintf("Resistance %s", formatPrice(r.Levels.Resistance))))
	for _, reason := range r.Reasons {
		lines = append(lines, SubtextStyle.Render("  - "+reason))
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) fetchResultsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Signals == nil {
			return resultsErrMsg{err: fmt.Errorf("signal service not available")}
		}
		results := make([]domain.SignalResult, 0, len(m.services.Watchlist))
		for _, pair := range m.services.Watchlist {
			q := service.Query{Symbol: pair.Symbol, Timeframe: pair.Timeframe}
			results = append(results, m.services.Signals.GetSignal(context.Background(), q))
		}
		return resultsMsg(results)
	}
}

func (m DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}
