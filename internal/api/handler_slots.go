package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-status-backend/internal/model"
)

// GetSlots handles GET /api/slots.
func (h *Handler) GetSlots(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.GetSlots())
}

// GetSlot handles GET /api/slots/:slot_id.
func (h *Handler) GetSlot(c *gin.Context) {
	slotID, ok := slotIDParam(c, c.Param("slot_id"))
	if !ok {
		return
	}
	slot, err := h.store.GetSlotByID(slotID)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

type putOccupancyRequest struct {
	Occupied *bool `json:"occupied" binding:"required"`
}

// PutSlotOccupancy handles PUT /api/slots/:slot_id/occupancy.
func (h *Handler) PutSlotOccupancy(c *gin.Context) {
	slotID, ok := slotIDParam(c, c.Param("slot_id"))
	if !ok {
		return
	}
	var req putOccupancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slot, err := h.store.UpdateSlotOccupancy(slotID, *req.Occupied)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

type putSlotsRequest struct {
	Updates []model.SlotUpdate `json:"updates" binding:"required,dive"`
}

// PutSlots handles PUT /api/slots. Updates naming unknown slots are skipped.
func (h *Handler) PutSlots(c *gin.Context) {
	var req putSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applied := h.store.UpdateMultipleSlots(req.Updates)
	c.JSON(http.StatusOK, gin.H{
		"applied": applied,
		"slots":   h.store.GetSlots(),
	})
}
