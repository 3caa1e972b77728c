package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"smartqueue-backend/config"
)

// Client is a thin HTTP client for the external ML prediction service. The
// service is an optional collaborator: when it is unreachable, every method
// returns the configured fallback values instead of an error.
type Client struct {
	baseURL string
	client  *http.Client
	cfg     *config.MLConfig
}

// NewClient creates a client for the configured ML service endpoint.
func NewClient(cfg *config.MLConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
	}
}

// Features is the feature vector the ML service expects.
type Features struct {
	Service         string `json:"service"`
	DayOfWeek       int    `json:"dayOfWeek"`
	HourOfDay       int    `json:"hourOfDay"`
	Month           int    `json:"month"`
	DayOfMonth      int    `json:"dayOfMonth"`
	PositionInQueue int    `json:"positionInQueue,omitempty"`
}

// FeaturesFor derives a feature vector from a service name, a reference time
// and a queue position.
func FeaturesFor(service string, at time.Time, position int) Features {
	if service == "" {
		service = "General"
	}
	if position < 1 {
		position = 1
	}
	return Features{
		Service:         service,
		DayOfWeek:       int(at.Weekday()),
		HourOfDay:       at.Hour(),
		Month:           int(at.Month()),
		DayOfMonth:      at.Day(),
		PositionInQueue: position,
	}
}

// WaitingTimePrediction is the waiting-time model output.
type WaitingTimePrediction struct {
	WaitingTime int    `json:"waitingTime"`
	Unit        string `json:"unit"`
}

// QueueLengthPrediction is the queue-length model output.
type QueueLengthPrediction struct {
	QueueLength int `json:"queueLength"`
}

// NoShowPrediction is the no-show model output.
type NoShowPrediction struct {
	NoShowProbability float64 `json:"noShowProbability"`
	Percentage        int     `json:"percentage"`
}

// PeakHoursPrediction is the peak-hours model output.
type PeakHoursPrediction struct {
	QueueDensity int  `json:"queueDensity"`
	IsPeak       bool `json:"isPeak"`
}

// PredictWaitingTime asks the ML service for a waiting-time prediction.
func (c *Client) PredictWaitingTime(ctx context.Context, f Features) WaitingTimePrediction {
	var out WaitingTimePrediction
	if err := c.post(ctx, "/predict/waiting-time", f, &out); err != nil {
		log.Printf("ML service error (waiting-time): %v", err)
		return WaitingTimePrediction{WaitingTime: c.cfg.FallbackWaitingMinutes, Unit: "minutes"}
	}
	return out
}

// PredictQueueLength asks the ML service for a queue-length prediction.
func (c *Client) PredictQueueLength(ctx context.Context, f Features) QueueLengthPrediction {
	var out QueueLengthPrediction
	if err := c.post(ctx, "/predict/queue-length", f, &out); err != nil {
		log.Printf("ML service error (queue-length): %v", err)
		return QueueLengthPrediction{QueueLength: c.cfg.FallbackQueueLength}
	}
	return out
}

// PredictNoShow asks the ML service for a no-show probability.
func (c *Client) PredictNoShow(ctx context.Context, f Features) NoShowPrediction {
	var out NoShowPrediction
	if err := c.post(ctx, "/predict/no-show", f, &out); err != nil {
		log.Printf("ML service error (no-show): %v", err)
		return NoShowPrediction{
			NoShowProbability: c.cfg.FallbackNoShow,
			Percentage:        int(math.Round(c.cfg.FallbackNoShow * 100)),
		}
	}
	return out
}

// PredictPeakHours asks the ML service for the current queue density.
func (c *Client) PredictPeakHours(ctx context.Context, f Features) PeakHoursPrediction {
	var out PeakHoursPrediction
	if err := c.post(ctx, "/predict/peak-hours", f, &out); err != nil {
		log.Printf("ML service error (peak-hours): %v", err)
		return PeakHoursPrediction{QueueDensity: c.cfg.FallbackQueueDensity, IsPeak: false}
	}
	return out
}

// Health reports whether the ML service is reachable, passing its own health
// payload through when it is.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ml service returned status %d", resp.StatusCode)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ml service returned status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
