package models

import "time"

// QueueLog лог сборки, привязанный к элементу очереди.
type QueueLog struct {
	ID        int64      `json:"id"`
	Build     int64      `json:"build"`
	Log       string     `json:"log"`
	Locked    bool       `json:"locked"`
	Purge     bool       `json:"purge"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Deleted   bool       `json:"deleted"`
	CreatedAt time.Time  `json:"created_at"`
}
