package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartqueue-backend/internal/model"
)

func TestPutSubscriptionEndpoint(t *testing.T) {
	router, gormDB := setupTestRouter(t, "http://127.0.0.1:1")

	t.Run("missing body", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/subscriptions", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("creates and replaces by endpoint", func(t *testing.T) {
		body := gin.H{
			"endpoint":    "https://example.com/push",
			"p256dh":      "key",
			"auth":        "secret",
			"tokenNumber": 4,
		}
		w := doJSON(t, router, http.MethodPut, "/api/subscriptions", body)
		require.Equal(t, http.StatusCreated, w.Code)

		// Re-subscribing the same endpoint to a new token replaces the row.
		body["tokenNumber"] = 9
		w = doJSON(t, router, http.MethodPut, "/api/subscriptions", body)
		require.Equal(t, http.StatusCreated, w.Code)

		var subs []model.PushSubscription
		require.NoError(t, gormDB.Find(&subs).Error)
		require.Len(t, subs, 1)
		assert.Equal(t, int64(9), subs[0].TokenNumber)
	})
}

func TestDeleteSubscriptionEndpoint(t *testing.T) {
	router, gormDB := setupTestRouter(t, "http://127.0.0.1:1")

	require.NoError(t, gormDB.Create(&model.PushSubscription{
		Endpoint:    "https://example.com/push",
		P256DH:      "key",
		Auth:        "secret",
		TokenNumber: 4,
	}).Error)

	w := doJSON(t, router, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://example.com/push"})
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, gormDB.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetVAPIDPublicKeyEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t, "http://127.0.0.1:1")

	w := doJSON(t, router, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-public-key", decodeBody(t, w)["public_key"])
}

func TestMLStatusEndpoint_Disconnected(t *testing.T) {
	router, _ := setupTestRouter(t, "http://127.0.0.1:1")

	w := doJSON(t, router, http.MethodGet, "/api/ml/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "disconnected", decodeBody(t, w)["mlService"])
}
