package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartqueue-backend/internal/model"
	"smartqueue-backend/internal/queue"
	"smartqueue-backend/internal/store"
)

type joinQueueRequest struct {
	Service     string `json:"service" binding:"required"`
	EventID     *uint  `json:"eventId"`
	GuestName   string `json:"guestName"`
	GuestMobile string `json:"guestMobile"`
	GuestEmail  string `json:"guestEmail"`
}

// JoinQueue handles the POST /api/queue/join request.
func (h *Handler) JoinQueue(c *gin.Context) {
	var req joinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service is required"})
		return
	}

	result, err := h.queue.Join(c.Request.Context(), queue.JoinRequest{
		Service:     req.Service,
		EventID:     req.EventID,
		GuestName:   req.GuestName,
		GuestMobile: req.GuestMobile,
		GuestEmail:  req.GuestEmail,
	})
	if err != nil {
		h.writeQueueError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":           "Joined queue successfully",
		"token":             result.Entry.TokenNumber,
		"position":          result.Position,
		"estimatedWaitTime": result.EstimatedWaitMinutes,
	})
}

// ListQueue handles the GET /api/queue request. An optional status query
// parameter filters the list; entries come back in creation order.
func (h *Handler) ListQueue(c *gin.Context) {
	var statuses []model.Status
	if raw := c.Query("status"); raw != "" {
		status := model.Status(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + raw})
			return
		}
		statuses = append(statuses, status)
	}

	entries, err := h.queue.List(c.Request.Context(), statuses...)
	if err != nil {
		h.writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// StartServing handles the PUT /api/queue/:id/start request.
func (h *Handler) StartServing(c *gin.Context) {
	id, ok := entryIDParam(c)
	if !ok {
		return
	}

	entry, err := h.queue.Start(c.Request.Context(), id)
	if err != nil {
		h.writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// CompleteServing handles the PUT /api/queue/:id/complete request.
func (h *Handler) CompleteServing(c *gin.Context) {
	id, ok := entryIDParam(c)
	if !ok {
		return
	}

	entry, err := h.queue.Complete(c.Request.Context(), id)
	if err != nil {
		h.writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetPrediction handles the GET /api/queue/prediction request.
func (h *Handler) GetPrediction(c *gin.Context) {
	snapshot, err := h.queue.Estimate(c.Request.Context())
	if err != nil {
		h.writeQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func entryIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return 0, false
	}
	return uint(id), true
}

// writeQueueError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) writeQueueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrServiceRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrEventFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateToken):
		// A collision means the sequencer invariant broke somewhere.
		log.Printf("correctness violation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}
