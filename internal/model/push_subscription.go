package model

import "time"

// PushSubscription holds a browser push subscription tied to a token number.
// The subscriber is alerted when that token transitions to serving.
type PushSubscription struct {
	Endpoint    string    `gorm:"primaryKey"`
	P256DH      string    `gorm:"column:p256dh;not null"`
	Auth        string    `gorm:"not null"`
	TokenNumber int64     `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}
