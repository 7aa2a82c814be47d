package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parking-status-backend/internal/history"
)

// GetSnapshot handles GET /api/snapshot: the ingest poller's latest readings
// with their classified status.
func (h *Handler) GetSnapshot(c *gin.Context) {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "poller is not running"})
		return
	}

	target := h.engine.Target()
	c.JSON(http.StatusOK, gin.H{
		"address":   target.Host,
		"scheme":    target.Scheme,
		"lastError": h.engine.LastError(),
		"slots":     h.engine.Classified(time.Now()),
	})
}

// GetHistory handles GET /api/history?slot_id=&limit=.
func (h *Handler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	var filter history.Filter
	if raw, ok := c.GetQuery("slot_id"); ok {
		slotID, ok := slotIDParam(c, raw)
		if !ok {
			return
		}
		filter.SlotID = &slotID
	}
	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = limit
	}

	events, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// Healthz reports liveness together with relay and poller state.
func (h *Handler) Healthz(c *gin.Context) {
	resp := gin.H{
		"status":       "ok",
		"relayClients": h.relay.GetClientCount(),
	}
	if h.engine != nil {
		resp["pollerError"] = h.engine.LastError()
	}
	c.JSON(http.StatusOK, resp)
}
