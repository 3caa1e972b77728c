package model

import "time"

// Status is the lifecycle state of a queue entry.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusServing   Status = "serving"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusServing, StatusCompleted:
		return true
	}
	return false
}

// QueueEntry represents one customer's place in the queue. Entries are never
// deleted; completed rows feed the historical service-time average.
type QueueEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TokenNumber int64     `gorm:"uniqueIndex;not null" json:"tokenNumber"`
	Service     string    `gorm:"size:128;not null" json:"service"`
	Status      Status    `gorm:"size:16;not null;index" json:"status"`
	EventID     *uint     `gorm:"index" json:"eventId,omitempty"`
	GuestName   string    `gorm:"size:128" json:"guestName,omitempty"`
	GuestMobile string    `gorm:"size:32" json:"guestMobile,omitempty"`
	GuestEmail  string    `gorm:"size:256" json:"guestEmail,omitempty"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

// TokenCounter is the single-row sequence backing token issuance. The row is
// incremented in the same transaction that inserts the entry, so concurrent
// joins can never observe the same value.
type TokenCounter struct {
	ID    uint  `gorm:"primaryKey"`
	Value int64 `gorm:"not null"`
}
