package queue

import (
	"context"
	"log"
	"time"

	"smartqueue-backend/internal/model"
	"smartqueue-backend/internal/store"
)

// Notifier broadcasts a full queue snapshot to all currently connected
// observers. Delivery is fire-and-forget: a disconnected observer simply
// misses the update and resynchronizes with its next query.
type Notifier interface {
	Broadcast(payload any)
}

// Alerter dispatches an out-of-band alert for a token, used when an entry
// transitions to serving.
type Alerter interface {
	Dispatch(tokenNumber int64)
}

// Service implements the queue operations: joining, advancing entries through
// their lifecycle, and estimating waits. Every successful mutation publishes a
// replacement snapshot through the Notifier; failed mutations never do.
type Service struct {
	store             store.Store
	notifier          Notifier
	alerter           Alerter
	defaultAvgMinutes float64
}

// NewService creates a queue service. notifier and alerter may be nil, in
// which case the corresponding side effects are skipped.
func NewService(s store.Store, notifier Notifier, alerter Alerter, defaultAvgMinutes float64) *Service {
	if defaultAvgMinutes <= 0 {
		defaultAvgMinutes = 5
	}
	return &Service{
		store:             s,
		notifier:          notifier,
		alerter:           alerter,
		defaultAvgMinutes: defaultAvgMinutes,
	}
}

// JoinRequest carries the details of a customer joining the queue.
type JoinRequest struct {
	Service     string
	EventID     *uint
	GuestName   string
	GuestMobile string
	GuestEmail  string
}

// JoinResult is returned to the joining customer.
type JoinResult struct {
	Entry                *model.QueueEntry
	Position             int
	EstimatedWaitMinutes int
}

// Join issues the next token, persists a waiting entry and broadcasts the
// updated queue. The token number, the event capacity check and the insert
// are a single transaction, so concurrent joins always receive distinct
// tokens and never overshoot an event's capacity.
func (s *Service) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if req.Service == "" {
		return nil, ErrServiceRequired
	}

	entry := &model.QueueEntry{
		Service:     req.Service,
		EventID:     req.EventID,
		GuestName:   req.GuestName,
		GuestMobile: req.GuestMobile,
		GuestEmail:  req.GuestEmail,
	}
	if err := s.store.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	result := &JoinResult{Entry: entry}

	snapshot, err := s.buildSnapshot(ctx)
	if err != nil {
		// The entry is already committed; surfacing an error now would invite
		// a retry and a second token. Answer with the entry and skip the
		// publish, like any other post-mutation snapshot failure.
		log.Printf("queue: join committed but snapshot failed: %v", err)
		return result, nil
	}

	for _, item := range snapshot.Queue {
		if item.TokenNumber == entry.TokenNumber {
			result.Position = item.Position
			result.EstimatedWaitMinutes = item.EstimatedWaitMinutes
			break
		}
	}

	s.publish(snapshot)
	return result, nil
}

// Start moves a waiting entry to serving.
func (s *Service) Start(ctx context.Context, id uint) (*model.QueueEntry, error) {
	entry, err := s.store.TransitionEntry(ctx, id, model.StatusWaiting, model.StatusServing, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if s.alerter != nil {
		s.alerter.Dispatch(entry.TokenNumber)
	}
	s.broadcast(ctx)
	return entry, nil
}

// Complete moves a serving entry to completed. The entry's service duration
// now feeds the historical average.
func (s *Service) Complete(ctx context.Context, id uint) (*model.QueueEntry, error) {
	entry, err := s.store.TransitionEntry(ctx, id, model.StatusServing, model.StatusCompleted, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx)
	return entry, nil
}

// List returns entries ordered by creation time, optionally filtered by status.
func (s *Service) List(ctx context.Context, statuses ...model.Status) ([]model.QueueEntry, error) {
	return s.store.ListEntries(ctx, statuses...)
}

// broadcast recomputes the snapshot and publishes it. The mutation that
// triggered it has already succeeded, so a failed read here is only logged.
func (s *Service) broadcast(ctx context.Context) {
	snapshot, err := s.buildSnapshot(ctx)
	if err != nil {
		log.Printf("queue: skipping broadcast, snapshot failed: %v", err)
		return
	}
	s.publish(snapshot)
}

func (s *Service) publish(snapshot *Snapshot) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(snapshot)
}
