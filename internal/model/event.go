package model

import "time"

// EventStatus enumerates the lifecycle state of an event.
type EventStatus int

const (
	StatusOngoing   EventStatus = 0
	StatusCompleted EventStatus = 1
)

// Valid reports whether s is a known status value.
func (s EventStatus) Valid() bool {
	return s == StatusOngoing || s == StatusCompleted
}

type Event struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Status        EventStatus `json:"status"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
	Location      string      `json:"location"`
	ThumbnailPath string      `json:"thumbnail_path"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
