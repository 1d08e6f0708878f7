package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v3"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
)

func sellResult() domain.SignalResult {
	return domain.SignalResult{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Action:    domain.ActionSell,
		Scores:    domain.Scores{RSI: 81.2, Funding: 0.0008, MACDHist: -0.4},
		Levels:    domain.Levels{Support: 58000, Resistance: 63000},
		Reasons:   []string{"RSI>75 overbought"},
	}
}

func TestAlertDispatcherDispatch(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewAlertDispatcher(sender)

	if !dispatcher.Subscribe(10) {
		t.Fatal("expected initial subscribe to return true")
	}
	if !dispatcher.Subscribe(20) {
		t.Fatal("expected initial subscribe to return true")
	}
	if dispatcher.Subscribe(10) {
		t.Fatal("expected duplicate subscribe to return false")
	}

	dispatcher.Dispatch(context.Background(), sellResult())

	if len(sender.messages[10]) != 1 || len(sender.messages[20]) != 1 {
		t.Fatalf("expected one message per subscriber, got %+v", sender.messages)
	}
	if !strings.Contains(sender.messages[10][0], "BTCUSDT 1h: SELL") {
		t.Fatalf("unexpected alert body: %s", sender.messages[10][0])
	}
}

func TestAlertDispatcherIgnoresWaitResults(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewAlertDispatcher(sender)
	dispatcher.Subscribe(10)

	dispatcher.Dispatch(context.Background(), domain.SignalResult{
		Symbol: "BTCUSDT",
		Action: domain.ActionWait,
	})

	if len(sender.messages) != 0 {
		t.Fatalf("expected zero outgoing messages, got %+v", sender.messages)
	}
}

func TestAlertDispatcherUnsubscribe(t *testing.T) {
	sender := &fakeSender{}
	dispatcher := NewAlertDispatcher(sender)

	dispatcher.Subscribe(10)
	if !dispatcher.Unsubscribe(10) {
		t.Fatal("expected unsubscribe to return true")
	}
	if dispatcher.Unsubscribe(10) {
		t.Fatal("expected second unsubscribe to return false")
	}

	dispatcher.Dispatch(context.Background(), sellResult())
	if len(sender.messages) != 0 {
		t.Fatalf("expected zero outgoing messages, got %+v", sender.messages)
	}
}

func TestAlertDispatcherNilSenderIsNoop(t *testing.T) {
	dispatcher := NewAlertDispatcher(nil)
	dispatcher.Subscribe(10)
	dispatcher.Dispatch(context.Background(), sellResult())
}

type fakeSender struct {
	messages map[int64][]string
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.messages == nil {
		f.messages = make(map[int64][]string)
	}

	chat, ok := to.(*tele.Chat)
	if !ok {
		return nil, fmt.Errorf("unexpected recipient type %T", to)
	}
	f.messages[chat.ID] = append(f.messages[chat.ID], fmt.Sprint(what))
	return &tele.Message{}, nil
}
