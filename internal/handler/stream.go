package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const streamInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamSignals godoc
// @Summary      Stream trading signals over websocket
// @Description  Pushes the current signal immediately and then every 30s
// @Tags         signals
// @Param        symbol     query  string  true   "Trading pair (e.g., BTC/USDT)"
// @Param        timeframe  query  string  false  "Candle timeframe"  default(1h)
// @Success      101
// @Failure      400  {object}  map[string]string
// @Router       /ws/signals [get]
func (h *Handler) StreamSignals(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	done := make(chan struct{})

	// Reader only drains control frames; any read error means the client
	// went away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		result := h.signalService.GetSignal(ctx, q)
		if err := conn.WriteJSON(result); err != nil {
			return
		}
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
