package bot

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

type SignalQuerier interface {
	GetSignal(ctx context.Context, q service.Query) domain.SignalResult
	GetCandles(ctx context.Context, q service.Query) ([]*domain.Candle, error)
	GetFunding(ctx context.Context, symbol, exchange string) (*domain.FundingRate, error)
}

type ChartRenderer interface {
	RenderSignalChart(candles []*domain.Candle, result domain.SignalResult) ([]byte, error)
}

// StartTelegramBot wires the command handlers and starts long polling.
// Returns nil when no token is configured so alerting degrades to a no-op.
func StartTelegramBot(token string, signals SignalQuerier, renderer ChartRenderer) *AlertDispatcher {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	alerts := NewAlertDispatcher(b)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/signal", func(c tele.Context) error {
		q, err := parseSignalArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /signal BTC/USDT [timeframe]\nTimeframes: " + strings.Join(domain.SupportedTimeframes, ", "))
		}

		result := signals.GetSignal(context.Background(), q)
		caption := FormatResult(result)

		candles, err := signals.GetCandles(context.Background(), q)
		if err != nil || renderer == nil {
			return c.Send(caption)
		}
		imageBytes, err := renderer.RenderSignalChart(candles, result)
		if err != nil {
			return c.Send(caption)
		}
		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(imageBytes)),
			Caption: caption,
		}
		return c.Send(photo)
	})

	b.Handle("/funding", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /funding BTC/USDT")
		}
		symbol := args[0]
		funding, err := signals.GetFunding(context.Background(), symbol, "")
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching funding for %s: %v", symbol, err))
		}
		return c.Send(fmt.Sprintf(
			"%s\nFunding rate: %.4f%%\nMark price: $%.2f\nNext funding: %s",
			funding.Symbol,
			funding.LastFundingRate*100,
			funding.MarkPrice,
			time.UnixMilli(funding.NextFundingTime).UTC().Format(time.RFC822),
		))
	})

	b.Handle("/subscribe", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		if alerts.Subscribe(chat.ID) {
			return c.Send("Signal alerts enabled for this chat.")
		}
		return c.Send("Signal alerts are already enabled for this chat.")
	})

	b.Handle("/unsubscribe", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		if alerts.Unsubscribe(chat.ID) {
			return c.Send("Signal alerts disabled for this chat.")
		}
		return c.Send("Signal alerts are already disabled for this chat.")
	})

	log.Println("Telegram bot started")
	go b.Start()
	return alerts
}

func parseSignalArgs(args []string) (service.Query, error) {
	if len(args) == 0 {
		return service.Query{}, fmt.Errorf("symbol required")
	}
	q := service.Query{Symbol: args[0]}
	if domain.NormalizeSymbol(q.Symbol) == "" {
		return service.Query{}, fmt.Errorf("symbol required")
	}
	if len(args) > 1 {
		tf := strings.ToLower(strings.TrimSpace(args[1]))
		if !domain.IsSupportedTimeframe(tf) {
			return service.Query{}, fmt.Errorf("unsupported timeframe: %s", tf)
		}
		q.Timeframe = tf
	}
	if len(args) > 2 {
		return service.Query{}, fmt.Errorf("too many arguments")
	}
	return q.Normalize(), nil
}

// FormatResult renders one signal as a plain-text telegram message.
func FormatResult(r domain.SignalResult) string {
	lines := []string{
		fmt.Sprintf("%s %s: %s", r.Symbol, r.Timeframe, strings.ToUpper(string(r.Action))),
		fmt.Sprintf("RSI %.1f | Funding %.4f%% | MACD hist %.4f", r.Scores.RSI, r.Scores.Funding*100, r.Scores.MACDHist),
	}
	if r.Levels.Support > 0 || r.Levels.Resistance > 0 {
		lines = append(lines, fmt.Sprintf("Support %.2f / Resistance %.2f", r.Levels.Support, r.Levels.Resistance))
	}
	for _, reason := range r.Reasons {
		lines = append(lines, "- "+reason)
	}
	return strings.Join(lines, "\n")
}
