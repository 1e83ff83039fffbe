// Package events streams committed domain events to the staff portal as
// server-sent events.
package events

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/internal/handler"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/messaging"
)

const defaultKeepAlive = 25 * time.Second

type Handler struct {
	broker    messaging.Broker
	log       *logger.Logger
	keepAlive time.Duration
}

func NewHandler(broker messaging.Broker, log *logger.Logger) *Handler {
	return &Handler{broker: broker, log: log, keepAlive: defaultKeepAlive}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events", h.Stream)
}

// Stream relays broker messages until the client goes away. Each SSE event
// is named after the domain event type.
func (h *Handler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	messages, err := h.broker.Subscribe(ctx, messaging.EventsChannel)
	if err != nil {
		handler.RespondError(c, errors.Internal(err))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			c.SSEvent("ping", "")
			return true
		case raw, ok := <-messages:
			if !ok {
				return false
			}
			var msg messaging.Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				h.log.Warn("Dropping malformed broker message", "error", err.Error())
				return true
			}
			c.SSEvent(msg.Type, string(raw))
			return true
		}
	})
}
