package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartqueue-backend/internal/model"
)

const (
	minEventTokens = 1
	maxEventTokens = 9999
)

type createEventRequest struct {
	Title            string   `json:"title" binding:"required"`
	OrganizationType string   `json:"organizationType" binding:"required"`
	OrganizationName string   `json:"organizationName" binding:"required"`
	Date             string   `json:"date" binding:"required"`
	Time             string   `json:"time" binding:"required"`
	Location         string   `json:"location" binding:"required"`
	TotalTokens      int      `json:"totalTokens" binding:"required"`
	ServiceTypes     []string `json:"serviceTypes"`
}

// CreateEvent handles the POST /api/events request.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if req.TotalTokens < minEventTokens || req.TotalTokens > maxEventTokens {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total tokens must be between 1 and 9999"})
		return
	}

	event := model.Event{
		Title:            req.Title,
		OrganizationType: req.OrganizationType,
		OrganizationName: req.OrganizationName,
		Date:             req.Date,
		Time:             req.Time,
		Location:         req.Location,
		TotalTokens:      req.TotalTokens,
	}
	if err := event.SetServiceTypes(req.ServiceTypes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service types"})
		return
	}

	if err := h.store.CreateEvent(c.Request.Context(), &event); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, eventResponseFrom(&event, 0, 0))
}

// eventResponse is the public view of an event, with token availability
// derived from the queue.
type eventResponse struct {
	model.Event
	ServiceTypes    []string `json:"serviceTypes"`
	Status          string   `json:"status"`
	JoinedTokens    int64    `json:"joinedTokens"`
	AvailableTokens int64    `json:"availableTokens"`
	IsFull          bool     `json:"isFull"`
}

func eventResponseFrom(event *model.Event, joined, serving int64) eventResponse {
	available := int64(event.TotalTokens) - joined
	if available < 0 {
		available = 0
	}

	status := "Upcoming"
	if serving > 0 {
		status = "Ongoing"
	} else if available == 0 {
		status = "Full"
	}

	types := event.ServiceTypes()
	if types == nil {
		types = []string{}
	}

	return eventResponse{
		Event:           *event,
		ServiceTypes:    types,
		Status:          status,
		JoinedTokens:    joined,
		AvailableTokens: available,
		IsFull:          available == 0,
	}
}

// ListEvents handles the GET /api/events request.
func (h *Handler) ListEvents(c *gin.Context) {
	ctx := c.Request.Context()

	events, err := h.store.ListEvents(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	counts, err := h.store.EventEntryCounts(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	responses := make([]eventResponse, 0, len(events))
	for i := range events {
		event := &events[i]
		tally := counts[event.ID]
		responses = append(responses, eventResponseFrom(event, tally.Joined, tally.Serving))
	}

	c.JSON(http.StatusOK, responses)
}
