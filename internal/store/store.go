package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smartqueue-backend/internal/model"
)

// tokenCounterID is the primary key of the single sequence row.
const tokenCounterID = 1

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// CreateEntry issues the next token number and inserts a waiting entry as
	// one transaction. The assigned token is written back into entry. When
	// the entry targets an event, its capacity is checked inside the same
	// transaction, so concurrent joins cannot overshoot it.
	CreateEntry(ctx context.Context, entry *model.QueueEntry) error
	GetEntry(ctx context.Context, id uint) (*model.QueueEntry, error)
	GetEntryByToken(ctx context.Context, tokenNumber int64) (*model.QueueEntry, error)
	// ListEntries returns entries ordered by ascending created_at. With no
	// statuses it returns the full history.
	ListEntries(ctx context.Context, statuses ...model.Status) ([]model.QueueEntry, error)
	// TransitionEntry moves an entry from one status to another with a single
	// conditional update, so two concurrent calls can never both succeed.
	TransitionEntry(ctx context.Context, id uint, from, to model.Status, now time.Time) (*model.QueueEntry, error)

	CreateEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context) ([]model.Event, error)
	// EventEntryCounts tallies entries per event with one grouped query.
	EventEntryCounts(ctx context.Context) (map[uint]EventCounts, error)
}

// EventCounts is the per-event entry tally used to derive availability.
type EventCounts struct {
	Joined  int64
	Serving int64
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateEntry(ctx context.Context, entry *model.QueueEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The counter update doubles as the serialization point: concurrent
		// creates queue up on this row lock until the transaction commits, so
		// the capacity count below always sees the latest committed inserts.
		res := tx.Model(&model.TokenCounter{}).
			Where("id = ?", tokenCounterID).
			UpdateColumn("value", gorm.Expr("value + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("token counter row %d is missing", tokenCounterID)
		}

		if entry.EventID != nil {
			var event model.Event
			if err := tx.First(&event, *entry.EventID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: event %d", ErrNotFound, *entry.EventID)
				}
				return err
			}
			var joined int64
			if err := tx.Model(&model.QueueEntry{}).
				Where("event_id = ?", event.ID).
				Count(&joined).Error; err != nil {
				return err
			}
			if joined >= int64(event.TotalTokens) {
				return fmt.Errorf("%w: event %d", ErrEventFull, event.ID)
			}
		}

		var counter model.TokenCounter
		if err := tx.First(&counter, tokenCounterID).Error; err != nil {
			return err
		}

		entry.TokenNumber = counter.Value
		entry.Status = model.StatusWaiting
		return tx.Create(entry).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrEventFull):
			return err
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return fmt.Errorf("%w: token %d", ErrDuplicateToken, entry.TokenNumber)
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *gormStore) GetEntry(ctx context.Context, id uint) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: entry %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &entry, nil
}

func (s *gormStore) GetEntryByToken(ctx context.Context, tokenNumber int64) (*model.QueueEntry, error) {
	var entry model.QueueEntry
	err := s.db.WithContext(ctx).Where("token_number = ?", tokenNumber).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: token %d", ErrNotFound, tokenNumber)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &entry, nil
}

func (s *gormStore) ListEntries(ctx context.Context, statuses ...model.Status) ([]model.QueueEntry, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC, token_number ASC")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var entries []model.QueueEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return entries, nil
}

func (s *gormStore) TransitionEntry(ctx context.Context, id uint, from, to model.Status, now time.Time) (*model.QueueEntry, error) {
	res := s.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(map[string]any{"status": to, "updated_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing entry from one in the wrong status.
		entry, err := s.GetEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: entry %d is %s, not %s", ErrInvalidTransition, id, entry.Status, from)
	}
	return s.GetEntry(ctx, id)
}

func (s *gormStore) CreateEvent(ctx context.Context, event *model.Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *gormStore) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return events, nil
}

func (s *gormStore) EventEntryCounts(ctx context.Context) (map[uint]EventCounts, error) {
	var rows []struct {
		EventID uint
		Status  model.Status
		Total   int64
	}
	err := s.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Select("event_id, status, COUNT(*) AS total").
		Where("event_id IS NOT NULL").
		Group("event_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	counts := make(map[uint]EventCounts, len(rows))
	for _, row := range rows {
		c := counts[row.EventID]
		c.Joined += row.Total
		if row.Status == model.StatusServing {
			c.Serving += row.Total
		}
		counts[row.EventID] = c
	}
	return counts, nil
}
