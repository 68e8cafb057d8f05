package domain

import (
	"time"
)

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFaulted   SessionStatus = "faulted"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// ChargingSession is a raw charging session record as delivered by the
// sessions listing. EndTime is nil while the session is still running.
type ChargingSession struct {
	ID        string      `json:"id" gorm:"primaryKey"`
	StationID int64       `json:"station_id" gorm:"index"`
	UserID    string      `json:"user_id" gorm:"index"`
	StartTime time.Time   `json:"start_time"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	EnergyKWh float64     `json:"energy_consumed"`
	Status    StatusValue `json:"status" gorm:"type:varchar(32)"`
	CreatedAt time.Time   `json:"created_at"`
}

// DurationHours returns the session length in hours, zero while active.
func (s *ChargingSession) DurationHours() float64 {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime).Hours()
}
