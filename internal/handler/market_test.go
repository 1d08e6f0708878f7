package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/Renxian-Lu/crypto-signal/internal/chart"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
	"github.com/Renxian-Lu/crypto-signal/internal/signal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMarketData struct {
	candles    []*domain.Candle
	candlesErr error
	funding    *domain.FundingRate
	fundingErr error
}

func (m *stubMarketData) Candles(ctx context.Context, symbol, timeframe string, limit int, exchange string) ([]*domain.Candle, error) {
	if m.candlesErr != nil {
		return nil, m.candlesErr
	}
	return m.candles, nil
}

func (m *stubMarketData) FundingRate(ctx context.Context, symbol, exchange string) (*domain.FundingRate, error) {
	if m.fundingErr != nil {
		return nil, m.fundingErr
	}
	return m.funding, nil
}

type stubArchive struct {
	history []*domain.Candle
	err     error
}

func (a *stubArchive) UpsertCandles(ctx context.Context, candles []*domain.Candle) error {
	return a.err
}

func (a *stubArchive) GetCandlesInRange(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]*domain.Candle, error) {
	return a.history, a.err
}

func makeCandles(n int) []*domain.Candle {
	base := time.Unix(0, 0).UTC()
	out := make([]*domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		price := 100.0 + float64(i%5)
		out = append(out, &domain.Candle{
			Symbol:    "BTCUSDT",
			Timeframe: "1h",
			OpenTime:  base.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    10,
		})
	}
	return out
}

func newTestHandler(market service.MarketData, archive service.CandleArchive) *Handler {
	tracer := trace.NewNoopTracerProvider().Tracer("handler-test")
	svc := service.NewSignalService(tracer, market, signal.NewSynthesizer(), archive)
	return New(tracer, svc, chart.NewRenderer())
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	router := gin.New()
	h.RegisterRoutes(router)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetCandlesSuccess(t *testing.T) {
	h := newTestHandler(&stubMarketData{candles: makeCandles(5)}, nil)

	w := serve(h, "/api/candles?symbol=btc/usdt&timeframe=1h&limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Symbol  string           `json:"symbol"`
		Candles []*domain.Candle `json:"candles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.Symbol != "BTCUSDT" || len(resp.Candles) != 5 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestGetCandlesMissingSymbol(t *testing.T) {
	h := newTestHandler(&stubMarketData{}, nil)

	w := serve(h, "/api/candles")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetCandlesBadTimeframe(t *testing.T) {
	h := newTestHandler(&stubMarketData{}, nil)

	w := serve(h, "/api/candles?symbol=BTC/USDT&timeframe=3m")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetCandlesBadLimit(t *testing.T) {
	h := newTestHandler(&stubMarketData{}, nil)

	w := serve(h, "/api/candles?symbol=BTC/USDT&limit=5000")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetCandlesUpstreamFailureIs502(t *testing.T) {
	market := &stubMarketData{candlesErr: domain.ErrUpstreamFailure}
	h := newTestHandler(market, nil)

	w := serve(h, "/api/candles?symbol=BTC/USDT")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp["symbol"] != "BTCUSDT" || resp["exchange"] != "binance" {
		t.Fatalf("expected structured error payload, got %v", resp)
	}
}

func TestGetCandlesDataUnavailableIs404(t *testing.T) {
	market := &stubMarketData{candlesErr: domain.ErrDataUnavailable}
	h := newTestHandler(market, nil)

	w := serve(h, "/api/candles?symbol=BTC/USDT")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetIndicatorsSelectsRequestedKinds(t *testing.T) {
	h := newTestHandler(&stubMarketData{candles: makeCandles(60)}, nil)

	w := serve(h, "/api/indicators?symbol=BTC/USDT&indicators=rsi")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, ok := resp["RSI"]; !ok {
		t.Fatal("expected RSI in payload")
	}
	if _, ok := resp["MACD"]; ok {
		t.Fatal("did not expect MACD in payload")
	}
}

func TestGetIndicatorsUnknownKind(t *testing.T) {
	h := newTestHandler(&stubMarketData{candles: makeCandles(60)}, nil)

	w := serve(h, "/api/indicators?symbol=BTC/USDT&indicators=bollinger")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetFundingSuccess(t *testing.T) {
	market := &stubMarketData{funding: &domain.FundingRate{
		Symbol:          "BTCUSDT",
		LastFundingRate: 0.0003,
	}}
	h := newTestHandler(market, nil)

	w := serve(h, "/api/funding?symbol=BTC/USDT")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp domain.FundingRate
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.LastFundingRate != 0.0003 {
		t.Fatalf("unexpected funding payload: %+v", resp)
	}
}

func TestGetFundingUnsupportedExchange(t *testing.T) {
	market := &stubMarketData{fundingErr: domain.ErrUnsupportedExchange}
	h := newTestHandler(market, nil)

	w := serve(h, "/api/funding?symbol=BTC/USDT&exchange=kraken")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetHistorySuccess(t *testing.T) {
	archive := &stubArchive{history: makeCandles(3)}
	h := newTestHandler(&stubMarketData{}, archive)

	w := serve(h, "/api/history?symbol=BTC/USDT&timeframe=1h&from=2024-01-01T00:00:00Z&to=2024-01-02T00:00:00Z")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetHistoryBadRange(t *testing.T) {
	h := newTestHandler(&stubMarketData{}, &stubArchive{})

	w := serve(h, "/api/history?symbol=BTC/USDT&from=2024-01-02T00:00:00Z&to=2024-01-01T00:00:00Z")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetHistoryBadTimestamp(t *testing.T) {
	h := newTestHandler(&stubMarketData{}, &stubArchive{})

	w := serve(h, "/api/history?symbol=BTC/USDT&from=yesterday&to=2024-01-01T00:00:00Z")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&stubMarketData{}, nil)

	w := serve(h, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
