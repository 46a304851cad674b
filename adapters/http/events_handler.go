package http

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/adapters/event"
	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/pkg/logger"
)

const eventBuffer = 64

type EventsHandler struct {
	bus       *event.Bus
	keepAlive time.Duration
	logger    logger.Logger
}

func NewEventsHandler(bus *event.Bus, log logger.Logger) *EventsHandler {
	return &EventsHandler{bus: bus, keepAlive: 25 * time.Second, logger: log}
}

// Stream sends every committed change as a server-sent event named after its kind. A client
// that falls more than eventBuffer events behind misses the overflow.
func (h *EventsHandler) Stream(c *gin.Context) {
	ch := make(chan service.ChangeEvent, eventBuffer)
	unsubscribe := h.bus.Subscribe(func(evt service.ChangeEvent) {
		select {
		case ch <- evt:
		default:
			h.logger.Warn("Dropping change for slow event stream", zap.String("kind", string(evt.Kind)))
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt := <-ch:
			c.SSEvent(string(evt.Kind), evt)
			return true
		case <-ping.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
