package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"smartqueue-backend/internal/ml"
	"smartqueue-backend/internal/queue"
	"smartqueue-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	queue   *queue.Service
	store   store.Store
	ml      *ml.Client
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *queue.Service, s store.Store, mlClient *ml.Client, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		queue:   svc,
		store:   s,
		ml:      mlClient,
		webpush: webpushOptions,
	}
}
