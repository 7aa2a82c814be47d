package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"parking-status-backend/internal/history"
	"parking-status-backend/internal/poller"
	"parking-status-backend/internal/relay"
	"parking-status-backend/internal/store"
)

// Services bundles what the HTTP layer talks to. Engine, History and DB are
// optional; their endpoints answer 503 when they are nil.
type Services struct {
	Store   store.Store
	Relay   *relay.Relay
	Engine  *poller.Engine
	History *history.Recorder
	DB      *gorm.DB
	WebPush *webpush.Options
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	relay   *relay.Relay
	engine  *poller.Engine
	history *history.Recorder
	db      *gorm.DB
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc Services) *Handler {
	return &Handler{
		store:   svc.Store,
		relay:   svc.Relay,
		engine:  svc.Engine,
		history: svc.History,
		db:      svc.DB,
		webpush: svc.WebPush,
	}
}

// abortWithStoreError maps store sentinel errors to HTTP statuses.
func abortWithStoreError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrSlotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrSlotReserved):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalidDuration):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// slotIDParam parses a positive slot id, writing a 400 when it is not one.
func slotIDParam(c *gin.Context, raw string) (int, bool) {
	slotID, err := strconv.Atoi(raw)
	if err != nil || slotID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid slot ID"})
		return 0, false
	}
	return slotID, true
}
