package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

// parseQuery reads the shared symbol/timeframe/limit/exchange query
// parameters. On a bad request it writes the 400 response and reports false.
func parseQuery(c *gin.Context) (service.Query, bool) {
	q := service.Query{
		Symbol:    c.Query("symbol"),
		Timeframe: strings.TrimSpace(c.Query("timeframe")),
		Exchange:  strings.ToLower(strings.TrimSpace(c.Query("exchange"))),
	}

	if domain.NormalizeSymbol(q.Symbol) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return service.Query{}, false
	}
	if q.Timeframe != "" && !domain.IsSupportedTimeframe(q.Timeframe) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":                "unsupported timeframe: " + q.Timeframe,
			"supported_timeframes": domain.SupportedTimeframes,
		})
		return service.Query{}, false
	}
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return service.Query{}, false
		}
		q.Limit = n
	}
	return q.Normalize(), true
}

// GetCandles godoc
// @Summary      Get OHLCV candles
// @Description  Returns the cached candle series for a symbol and timeframe
// @Tags         market
// @Produce      json
// @Param        symbol     query  string  true   "Trading pair (e.g., BTC/USDT)"
// @Param        timeframe  query  string  false  "Candle timeframe"  default(1h)
// @Param        limit      query  int     false  "Number of candles (max 1000)"  default(300)
// @Param        exchange   query  string  false  "Exchange name"  default(binance)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/candles [get]
func (h *Handler) GetCandles(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
	defer span.End()

	q, ok := parseQuery(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("symbol", q.Symbol), attribute.String("timeframe", q.Timeframe))

	candles, err := h.signalService.GetCandles(ctx, q)
	if err != nil {
		writeError(c, q.Symbol, q.Exchange, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    q.Symbol,
		"timeframe": q.Timeframe,
		"exchange":  q.Exchange,
		"candles":   candles,
	})
}

// GetIndicators godoc
// @Summary      Get indicator series
// @Description  Returns RSI and/or MACD series computed over the candle closes
// @Tags         market
// @Produce      json
// @Param        symbol      query  string  true   "Trading pair (e.g., BTC/USDT)"
// @Param        timeframe   query  string  false  "Candle timeframe"  default(1h)
// @Param        limit       query  int     false  "Number of candles (max 1000)"  default(300)
// @Param        exchange    query  string  false  "Exchange name"  default(binance)
// @Param        indicators  query  string  false  "Comma-separated indicator names (rsi, macd)"
// @Success      200  {object}  service.IndicatorSet
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/indicators [get]
func (h *Handler) GetIndicators(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-indicators")
	defer span.End()

	q, ok := parseQuery(c)
	if !ok {
		return
	}

	kinds, unknown := domain.ParseIndicators(c.Query("indicators"))
	if unknown != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":                "unknown indicator: " + unknown,
			"supported_indicators": domain.AllIndicators,
		})
		return
	}

	set, err := h.signalService.GetIndicators(ctx, q, kinds)
	if err != nil {
		writeError(c, q.Symbol, q.Exchange, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// GetFunding godoc
// @Summary      Get current funding rate
// @Description  Returns the latest funding snapshot for a perpetual pair
// @Tags         market
// @Produce      json
// @Param        symbol    query  string  true   "Trading pair (e.g., BTC/USDT)"
// @Param        exchange  query  string  false  "Exchange name"  default(binance)
// @Success      200  {object}  domain.FundingRate
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/funding [get]
func (h *Handler) GetFunding(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-funding")
	defer span.End()

	symbol := domain.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	exchange := strings.ToLower(strings.TrimSpace(c.Query("exchange")))

	funding, err := h.signalService.GetFunding(ctx, symbol, exchange)
	if err != nil {
		writeError(c, symbol, exchange, err)
		return
	}
	c.JSON(http.StatusOK, funding)
}

// GetHistory godoc
// @Summary      Get archived candle history
// @Description  Returns candles persisted to the archive within a time range
// @Tags         market
// @Produce      json
// @Param        symbol     query  string  true   "Trading pair (e.g., BTC/USDT)"
// @Param        timeframe  query  string  false  "Candle timeframe"  default(1h)
// @Param        from       query  string  true   "Range start (RFC3339)"
// @Param        to         query  string  true   "Range end (RFC3339)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	symbol := domain.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe == "" {
		timeframe = service.DefaultTimeframe
	}
	if !domain.IsSupportedTimeframe(timeframe) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":                "unsupported timeframe: " + timeframe,
			"supported_timeframes": domain.SupportedTimeframes,
		})
		return
	}

	from, err := time.Parse(time.RFC3339, strings.TrimSpace(c.Query("from")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be an RFC3339 timestamp"})
		return
	}
	to, err := time.Parse(time.RFC3339, strings.TrimSpace(c.Query("to")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be an RFC3339 timestamp"})
		return
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be after from"})
		return
	}

	candles, err := h.signalService.GetHistory(ctx, symbol, timeframe, from, to)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"candles":   candles,
	})
}
