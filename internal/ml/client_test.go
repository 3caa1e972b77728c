package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartqueue-backend/config"
)

func testMLConfig(url string) *config.MLConfig {
	return &config.MLConfig{
		URL:                    url,
		Timeout:                2 * time.Second,
		FallbackWaitingMinutes: 15,
		FallbackQueueLength:    10,
		FallbackNoShow:         0.15,
		FallbackQueueDensity:   20,
	}
}

func TestFeaturesFor(t *testing.T) {
	at := time.Date(2025, 6, 4, 14, 30, 0, 0, time.UTC) // a Wednesday

	f := FeaturesFor("Pharmacy", at, 3)
	assert.Equal(t, Features{
		Service:         "Pharmacy",
		DayOfWeek:       3,
		HourOfDay:       14,
		Month:           6,
		DayOfMonth:      4,
		PositionInQueue: 3,
	}, f)

	// Missing service and position fall back to sane defaults.
	f = FeaturesFor("", at, 0)
	assert.Equal(t, "General", f.Service)
	assert.Equal(t, 1, f.PositionInQueue)
}

func TestClient_PredictWaitingTime(t *testing.T) {
	var gotFeatures Features
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict/waiting-time", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotFeatures))
		json.NewEncoder(w).Encode(WaitingTimePrediction{WaitingTime: 12, Unit: "minutes"})
	}))
	defer server.Close()

	client := NewClient(testMLConfig(server.URL))
	features := FeaturesFor("General", time.Now(), 2)

	prediction := client.PredictWaitingTime(context.Background(), features)
	assert.Equal(t, 12, prediction.WaitingTime)
	assert.Equal(t, "minutes", prediction.Unit)
	assert.Equal(t, features, gotFeatures)
}

func TestClient_FallbacksWhenServiceUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately unreachable

	client := NewClient(testMLConfig(server.URL))
	ctx := context.Background()
	features := FeaturesFor("General", time.Now(), 1)

	waiting := client.PredictWaitingTime(ctx, features)
	assert.Equal(t, WaitingTimePrediction{WaitingTime: 15, Unit: "minutes"}, waiting)

	length := client.PredictQueueLength(ctx, features)
	assert.Equal(t, QueueLengthPrediction{QueueLength: 10}, length)

	noShow := client.PredictNoShow(ctx, features)
	assert.Equal(t, NoShowPrediction{NoShowProbability: 0.15, Percentage: 15}, noShow)

	peak := client.PredictPeakHours(ctx, features)
	assert.Equal(t, PeakHoursPrediction{QueueDensity: 20, IsPeak: false}, peak)
}

func TestClient_FallbacksOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not trained", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testMLConfig(server.URL))

	prediction := client.PredictQueueLength(context.Background(), FeaturesFor("General", time.Now(), 1))
	assert.Equal(t, 10, prediction.QueueLength)
}

func TestClient_Health(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/health", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{"status": "ok", "modelsLoaded": true})
		}))
		defer server.Close()

		client := NewClient(testMLConfig(server.URL))
		health, err := client.Health(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", health["status"])
	})

	t.Run("disconnected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewClient(testMLConfig(server.URL))
		_, err := client.Health(context.Background())
		assert.Error(t, err)
	})
}
