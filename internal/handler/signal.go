package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSignal godoc
// @Summary      Get a trading signal
// @Description  Runs the indicator pipeline and returns an actionable signal
// @Tags         signals
// @Produce      json
// @Param        symbol     query  string  true   "Trading pair (e.g., BTC/USDT)"
// @Param        timeframe  query  string  false  "Candle timeframe"  default(1h)
// @Param        limit      query  int     false  "Number of candles (max 1000)"  default(300)
// @Param        exchange   query  string  false  "Exchange name"  default(binance)
// @Success      200  {object}  domain.SignalResult
// @Failure      400  {object}  map[string]string
// @Router       /api/signals [get]
func (h *Handler) GetSignal(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal")
	defer span.End()

	q, ok := parseQuery(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("symbol", q.Symbol), attribute.String("timeframe", q.Timeframe))

	// GetSignal degrades internally: upstream failures come back as a wait
	// result with the failure reason, always a 200.
	c.JSON(http.StatusOK, h.signalService.GetSignal(ctx, q))
}

// GetSignalChart godoc
// @Summary      Get signal chart image
// @Description  Renders the candle series, levels and indicator panels as PNG
// @Tags         signals
// @Produce      png
// @Param        symbol     query  string  true   "Trading pair (e.g., BTC/USDT)"
// @Param        timeframe  query  string  false  "Candle timeframe"  default(1h)
// @Param        limit      query  int     false  "Number of candles (max 1000)"  default(300)
// @Param        exchange   query  string  false  "Exchange name"  default(binance)
// @Success      200  {file}  binary
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/signals/chart.png [get]
func (h *Handler) GetSignalChart(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal-chart")
	defer span.End()

	q, ok := parseQuery(c)
	if !ok {
		return
	}

	candles, err := h.signalService.GetCandles(ctx, q)
	if err != nil {
		writeError(c, q.Symbol, q.Exchange, err)
		return
	}
	result := h.signalService.GetSignal(ctx, q)

	imageBytes, err := h.renderer.RenderSignalChart(candles, result)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", imageBytes)
}
