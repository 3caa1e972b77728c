package queue

import (
	"context"
	"math"

	"smartqueue-backend/internal/model"
)

// TokenEstimate is one waiting token's predicted wait. Field names follow the
// payload the dashboard consumes.
type TokenEstimate struct {
	TokenNumber          int64 `json:"tokenNumber"`
	EstimatedWaitMinutes int   `json:"estimatedWaitTime"`
	Position             int   `json:"position"`
}

// PredictionSnapshot is the estimator output: the historical average service
// time and per-token positions and waits for everyone currently waiting.
type PredictionSnapshot struct {
	AvgServiceTimeMinutes int             `json:"avgServiceTime"`
	Predictions           []TokenEstimate `json:"predictions"`
	TotalWaiting          int             `json:"totalWaiting"`
}

// SnapshotEntry is a queue entry enriched with its rank and wait estimate, as
// broadcast to subscribed observers. Serving entries carry position 0.
type SnapshotEntry struct {
	model.QueueEntry
	Position             int `json:"position"`
	EstimatedWaitMinutes int `json:"estimatedWaitTime"`
}

// Snapshot is the full replacement payload published after every mutation.
// Observers never receive diffs, so no client-side merging is needed.
type Snapshot struct {
	Queue []SnapshotEntry `json:"queue"`
}

// Estimate computes each waiting token's position and estimated wait from the
// average duration of all completed entries. Ranks are by ascending creation
// time; a token at position p waits p times the average. Any storage failure
// aborts the whole computation.
func (s *Service) Estimate(ctx context.Context) (*PredictionSnapshot, error) {
	avg, err := s.averageServiceMinutes(ctx)
	if err != nil {
		return nil, err
	}

	waiting, err := s.store.ListEntries(ctx, model.StatusWaiting)
	if err != nil {
		return nil, err
	}

	predictions := make([]TokenEstimate, 0, len(waiting))
	for i, entry := range waiting {
		predictions = append(predictions, TokenEstimate{
			TokenNumber:          entry.TokenNumber,
			Position:             i + 1,
			EstimatedWaitMinutes: roundMinutes(float64(i+1) * avg),
		})
	}

	return &PredictionSnapshot{
		AvgServiceTimeMinutes: roundMinutes(avg),
		Predictions:           predictions,
		TotalWaiting:          len(waiting),
	}, nil
}

// averageServiceMinutes averages updated_at - created_at over all completed
// entries. With no completions it falls back to the configured default; the
// fallback is a business default, not error recovery.
func (s *Service) averageServiceMinutes(ctx context.Context) (float64, error) {
	completed, err := s.store.ListEntries(ctx, model.StatusCompleted)
	if err != nil {
		return 0, err
	}
	if len(completed) == 0 {
		return s.defaultAvgMinutes, nil
	}

	var total float64
	for _, entry := range completed {
		total += entry.UpdatedAt.Sub(entry.CreatedAt).Minutes()
	}
	return total / float64(len(completed)), nil
}

// buildSnapshot assembles the broadcast payload: waiting and serving entries
// in creation order, with ranks and waits attached to the waiting ones.
func (s *Service) buildSnapshot(ctx context.Context) (*Snapshot, error) {
	entries, err := s.store.ListEntries(ctx, model.StatusWaiting, model.StatusServing)
	if err != nil {
		return nil, err
	}

	avg, err := s.averageServiceMinutes(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]SnapshotEntry, 0, len(entries))
	position := 0
	for _, entry := range entries {
		item := SnapshotEntry{QueueEntry: entry}
		if entry.Status == model.StatusWaiting {
			position++
			item.Position = position
			item.EstimatedWaitMinutes = roundMinutes(float64(position) * avg)
		}
		items = append(items, item)
	}
	return &Snapshot{Queue: items}, nil
}

// roundMinutes rounds half-up on the final minutes value only; intermediate
// averages stay fractional.
func roundMinutes(minutes float64) int {
	return int(math.Round(minutes))
}
