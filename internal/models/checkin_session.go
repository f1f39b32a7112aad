package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckInSession is one attendance interval. A nil CheckOutTime means the session is active.
type CheckInSession struct {
	ID                uuid.UUID  `json:"id"`
	EventID           uuid.UUID  `json:"event_id"`
	UserID            uuid.UUID  `json:"user_id"`
	CheckInTime       time.Time  `json:"check_in_time"`
	CheckOutTime      *time.Time `json:"check_out_time,omitempty"`
	CheckedInByAdmin  bool       `json:"checked_in_by_admin"`
	CheckedOutByAdmin bool       `json:"checked_out_by_admin"`
	Latitude          *float64   `json:"latitude,omitempty"`
	Longitude         *float64   `json:"longitude,omitempty"`
}

// Active reports whether the session has not been closed.
func (s *CheckInSession) Active() bool {
	return s.CheckOutTime == nil
}

// Location is an optional geolocation captured on self check-in.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
