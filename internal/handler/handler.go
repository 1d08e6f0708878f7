package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/Renxian-Lu/crypto-signal/internal/chart"
	"github.com/Renxian-Lu/crypto-signal/internal/domain"
	"github.com/Renxian-Lu/crypto-signal/internal/service"
)

type Handler struct {
	tracer        trace.Tracer
	signalService *service.SignalService
	renderer      *chart.Renderer
}

func New(tracer trace.Tracer, signalService *service.SignalService, renderer *chart.Renderer) *Handler {
	return &Handler{
		tracer:        tracer,
		signalService: signalService,
		renderer:      renderer,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/candles", h.GetCandles)
	r.GET("/api/indicators", h.GetIndicators)
	r.GET("/api/funding", h.GetFunding)
	r.GET("/api/signals", h.GetSignal)
	r.GET("/api/signals/chart.png", h.GetSignalChart)
	r.GET("/api/history", h.GetHistory)
	r.GET("/ws/signals", h.StreamSignals)
}

// Health godoc
// @Summary      Service health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps domain errors onto HTTP statuses. Upstream trouble is
// never reported as a 500: the caller did nothing wrong and the payload
// says which dependency failed.
func writeError(c *gin.Context, symbol, exchange string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrDataUnavailable):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedExchange):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"error":    err.Error(),
		"symbol":   symbol,
		"exchange": exchange,
	})
}
