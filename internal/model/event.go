package model

import "time"

type EventType string

const (
	EventBooked        EventType = "appointment.booked"
	EventRescheduled   EventType = "appointment.rescheduled"
	EventCancelled     EventType = "appointment.cancelled"
	EventStatusChanged EventType = "appointment.status_changed"
)

// Event describes a committed appointment change.
type Event struct {
	Type        EventType
	Appointment Appointment
	Previous    *Appointment
	Actor       Caller
	At          time.Time
}
