package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartqueue-backend/internal/ml"
	"smartqueue-backend/internal/store"
)

type mlPredictRequest struct {
	TokenNumber     *int64 `json:"tokenNumber"`
	Service         string `json:"service"`
	PositionInQueue int    `json:"positionInQueue"`
	Date            string `json:"date"`
	Hour            *int   `json:"hour"`
}

// featuresFromRequest resolves the feature vector for a prediction request.
// When a token number is given, the entry's service and join time are used.
func (h *Handler) featuresFromRequest(c *gin.Context, req mlPredictRequest) (ml.Features, bool) {
	service := req.Service
	at := time.Now()

	if req.TokenNumber != nil {
		entry, err := h.store.GetEntryByToken(c.Request.Context(), *req.TokenNumber)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return ml.Features{}, false
		}
		if entry != nil {
			service = entry.Service
			at = entry.CreatedAt
		}
	}

	if service == "" && req.TokenNumber == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token number or service is required"})
		return ml.Features{}, false
	}
	return ml.FeaturesFor(service, at, req.PositionInQueue), true
}

// PredictWaitingTime handles POST /api/ml/predict/waiting-time.
func (h *Handler) PredictWaitingTime(c *gin.Context) {
	var req mlPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	features, ok := h.featuresFromRequest(c, req)
	if !ok {
		return
	}

	prediction := h.ml.PredictWaitingTime(c.Request.Context(), features)
	c.JSON(http.StatusOK, gin.H{
		"waitingTime": prediction.WaitingTime,
		"unit":        prediction.Unit,
		"features":    features,
	})
}

// PredictQueueLength handles POST /api/ml/predict/queue-length.
func (h *Handler) PredictQueueLength(c *gin.Context) {
	var req mlPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at := time.Now()
	if req.Date != "" {
		if parsed, err := time.Parse("2006-01-02", req.Date); err == nil {
			at = parsed
		}
	}
	features := ml.FeaturesFor(req.Service, at, 0)
	if req.Hour != nil {
		features.HourOfDay = *req.Hour
	}
	features.PositionInQueue = 0

	prediction := h.ml.PredictQueueLength(c.Request.Context(), features)
	c.JSON(http.StatusOK, gin.H{
		"queueLength": prediction.QueueLength,
		"features":    features,
	})
}

// PredictNoShow handles POST /api/ml/predict/no-show.
func (h *Handler) PredictNoShow(c *gin.Context) {
	var req mlPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	features, ok := h.featuresFromRequest(c, req)
	if !ok {
		return
	}

	prediction := h.ml.PredictNoShow(c.Request.Context(), features)
	c.JSON(http.StatusOK, gin.H{
		"noShowProbability": prediction.NoShowProbability,
		"percentage":        prediction.Percentage,
		"features":          features,
	})
}

// PredictPeakHours handles POST /api/ml/predict/peak-hours.
func (h *Handler) PredictPeakHours(c *gin.Context) {
	var req mlPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at := time.Now()
	features := ml.FeaturesFor(req.Service, at, 0)
	if req.Hour != nil {
		features.HourOfDay = *req.Hour
	}
	features.PositionInQueue = 0

	prediction := h.ml.PredictPeakHours(c.Request.Context(), features)
	c.JSON(http.StatusOK, gin.H{"current": prediction})
}

// MLStatus handles GET /api/ml/status.
func (h *Handler) MLStatus(c *gin.Context) {
	health, err := h.ml.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"mlService": "disconnected", "error": err.Error()})
		return
	}

	response := gin.H{"mlService": "connected"}
	for k, v := range health {
		response[k] = v
	}
	c.JSON(http.StatusOK, response)
}
