package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"smartqueue-backend/internal/db"
	"smartqueue-backend/internal/model"
)

var testDBSeq int64

// newTestDB opens a fresh in-memory SQLite database with the schema applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:storetest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func TestCreateEntry_AssignsSequentialTokens(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		entry := &model.QueueEntry{Service: "General"}
		require.NoError(t, s.CreateEntry(ctx, entry))
		assert.Equal(t, want, entry.TokenNumber)
		assert.Equal(t, model.StatusWaiting, entry.Status)
	}
}

func TestCreateEntry_ConcurrentJoinsGetDistinctTokens(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	const joins = 10
	tokens := make(chan int64, joins)
	var wg sync.WaitGroup
	for i := 0; i < joins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := &model.QueueEntry{Service: "General"}
			if err := s.CreateEntry(ctx, entry); err == nil {
				tokens <- entry.TokenNumber
			}
		}()
	}
	wg.Wait()
	close(tokens)

	seen := make(map[int64]bool)
	count := 0
	for token := range tokens {
		assert.False(t, seen[token], "token %d issued twice", token)
		seen[token] = true
		count++
	}
	assert.Equal(t, joins, count)
}

func TestListEntries_OrderedByCreation(t *testing.T) {
	gormDB := newTestDB(t)
	s := NewGormStore(gormDB)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := &model.QueueEntry{Service: "General"}
		require.NoError(t, s.CreateEntry(ctx, entry))
		// Spread creation times out so ordering is unambiguous.
		require.NoError(t, gormDB.Model(entry).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	entries, err := s.ListEntries(ctx, model.StatusWaiting)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].CreatedAt.Before(entries[i].CreatedAt))
		assert.Less(t, entries[i-1].TokenNumber, entries[i].TokenNumber)
	}
}

func TestTransitionEntry(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	entry := &model.QueueEntry{Service: "General"}
	require.NoError(t, s.CreateEntry(ctx, entry))

	t.Run("waiting to serving succeeds", func(t *testing.T) {
		updated, err := s.TransitionEntry(ctx, entry.ID, model.StatusWaiting, model.StatusServing, now)
		require.NoError(t, err)
		assert.Equal(t, model.StatusServing, updated.Status)
	})

	t.Run("repeated start fails and leaves status unchanged", func(t *testing.T) {
		_, err := s.TransitionEntry(ctx, entry.ID, model.StatusWaiting, model.StatusServing, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		current, err := s.GetEntry(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusServing, current.Status)
	})

	t.Run("serving to completed succeeds", func(t *testing.T) {
		updated, err := s.TransitionEntry(ctx, entry.ID, model.StatusServing, model.StatusCompleted, now)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, updated.Status)
	})

	t.Run("completed entry cannot be restarted", func(t *testing.T) {
		_, err := s.TransitionEntry(ctx, entry.ID, model.StatusWaiting, model.StatusServing, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown entry reports not found", func(t *testing.T) {
		_, err := s.TransitionEntry(ctx, 9999, model.StatusWaiting, model.StatusServing, now)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetEntry_NotFound(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	_, err := s.GetEntry(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testEvent(capacity int) *model.Event {
	return &model.Event{
		Title:            "Walk-in clinic",
		OrganizationType: "Hospital",
		OrganizationName: "City General",
		Date:             "2025-06-01",
		Time:             "09:00",
		Location:         "Main hall",
		TotalTokens:      capacity,
	}
}

func TestEventEntryCounts(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	event := testEvent(50)
	require.NoError(t, s.CreateEvent(ctx, event))

	var first *model.QueueEntry
	for i := 0; i < 3; i++ {
		entry := &model.QueueEntry{Service: "General", EventID: &event.ID}
		require.NoError(t, s.CreateEntry(ctx, entry))
		if first == nil {
			first = entry
		}
	}
	entry := &model.QueueEntry{Service: "General"} // not linked to the event
	require.NoError(t, s.CreateEntry(ctx, entry))

	_, err := s.TransitionEntry(ctx, first.ID, model.StatusWaiting, model.StatusServing, time.Now().UTC())
	require.NoError(t, err)

	counts, err := s.EventEntryCounts(ctx)
	require.NoError(t, err)
	require.Contains(t, counts, event.ID)
	assert.Equal(t, int64(3), counts[event.ID].Joined)
	assert.Equal(t, int64(1), counts[event.ID].Serving)
	assert.Len(t, counts, 1, "entries without an event are not tallied")
}

func TestCreateEntry_EnforcesEventCapacity(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	event := testEvent(2)
	require.NoError(t, s.CreateEvent(ctx, event))

	for i := 0; i < 2; i++ {
		entry := &model.QueueEntry{Service: "General", EventID: &event.ID}
		require.NoError(t, s.CreateEntry(ctx, entry))
	}

	entry := &model.QueueEntry{Service: "General", EventID: &event.ID}
	assert.ErrorIs(t, s.CreateEntry(ctx, entry), ErrEventFull)

	// The general queue is not capped, and the rejected create left no gap in
	// the token sequence.
	entry = &model.QueueEntry{Service: "General"}
	require.NoError(t, s.CreateEntry(ctx, entry))
	assert.Equal(t, int64(3), entry.TokenNumber)
}

func TestCreateEntry_UnknownEvent(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	missing := uint(99)
	entry := &model.QueueEntry{Service: "General", EventID: &missing}
	assert.ErrorIs(t, s.CreateEntry(context.Background(), entry), ErrNotFound)
}

func TestCreateEntry_ConcurrentJoinsCannotOvershootEvent(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	event := testEvent(1)
	require.NoError(t, s.CreateEvent(ctx, event))

	// The capacity count runs inside the create transaction, so of these
	// concurrent joins exactly one can claim the single slot.
	const joins = 5
	errs := make(chan error, joins)
	var wg sync.WaitGroup
	for i := 0; i < joins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := &model.QueueEntry{Service: "General", EventID: &event.ID}
			errs <- s.CreateEntry(ctx, entry)
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, full int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, ErrEventFull)
			full++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, joins-1, full)

	var persisted int64
	require.NoError(t, s.DB().Model(&model.QueueEntry{}).Where("event_id = ?", event.ID).Count(&persisted).Error)
	assert.Equal(t, int64(1), persisted)
}

// newMockDB creates a sqlmock-backed gorm connection for failure-path tests.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestStorageFailuresSurfaceAsUnavailable(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)
	ctx := context.Background()

	t.Run("list entries", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "queue_entries"`).
			WillReturnError(fmt.Errorf("connection refused"))

		_, err := s.ListEntries(ctx, model.StatusWaiting)
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})

	t.Run("create entry", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "token_counters"`).
			WillReturnError(fmt.Errorf("connection refused"))
		mock.ExpectRollback()

		err := s.CreateEntry(ctx, &model.QueueEntry{Service: "General"})
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
