package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-status-backend/internal/model"
)

type createReservationRequest struct {
	SlotID          int    `json:"slotId" binding:"required"`
	UserID          string `json:"userId" binding:"required"`
	DurationMinutes int    `json:"durationMinutes" binding:"required"`
}

// CreateReservation handles POST /api/reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservation, err := h.store.CreateReservation(req.SlotID, req.UserID, req.DurationMinutes)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// GetReservations handles GET /api/reservations with optional slot_id and user_id filters.
func (h *Handler) GetReservations(c *gin.Context) {
	rawSlot, bySlot := c.GetQuery("slot_id")
	userID, byUser := c.GetQuery("user_id")

	var reservations []model.Reservation
	switch {
	case bySlot:
		slotID, ok := slotIDParam(c, rawSlot)
		if !ok {
			return
		}
		reservations = h.store.GetReservationsForSlot(slotID)
		if byUser {
			reservations = filterByUser(reservations, userID)
		}
	case byUser:
		reservations = h.store.GetReservationsForUser(userID)
	default:
		reservations = h.store.GetReservations()
	}
	c.JSON(http.StatusOK, reservations)
}

func filterByUser(reservations []model.Reservation, userID string) []model.Reservation {
	out := reservations[:0]
	for _, r := range reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}
