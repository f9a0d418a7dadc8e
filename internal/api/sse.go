package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"orderdesk/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// streamOrders pushes the tenant's change feed over Server-Sent Events. No
// replay: the stream starts empty, so clients fetch current state (and the
// counts for their badge) right after connecting, then fold in events.
func (h *Handler) streamOrders(c *gin.Context) {
	tenant := tenantID(c)
	logger := util.NamedLogger("sse")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	c.Writer.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Content-Type-Options", "nosniff")

	ctx := c.Request.Context()
	events := h.feed.Subscribe(ctx, tenant)
	util.FeedSubscribers.Inc()
	defer util.FeedSubscribers.Dec()

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	logger.Info("Feed subscriber connected", zap.String("restaurant_id", tenant.String()))

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(evt)
			if err != nil {
				logger.Error("Failed to serialize feed event", zap.Error(err))
				continue
			}

			fmt.Fprintf(c.Writer, "event: order\ndata: %s\n\n", data)
			flusher.Flush()

		case <-ctx.Done():
			logger.Info("Feed subscriber disconnected", zap.String("restaurant_id", tenant.String()))
			return
		}
	}
}
