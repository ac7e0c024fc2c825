package model

import (
	"errors"
	"time"
)

// AppointmentDuration is the fixed length of every appointment.
const AppointmentDuration = 60 * time.Minute

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("slot conflict")
)

type Doctor struct {
	ID           string
	Name         string
	Email        string
	Specialty    string
	PasswordHash string
}

type Patient struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

// Account is the credential view of any user, regardless of role.
type Account struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
}

type Appointment struct {
	ID          string
	DoctorID    string
	PatientID   string
	ScheduledAt time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *Appointment) EndAt() time.Time {
	return a.ScheduledAt.Add(AppointmentDuration)
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status.Active()
}

// Caller is the identity recovered from a verified access token.
type Caller struct {
	Role    Role
	Subject string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// Naive drops the location of t, keeping its wall clock, and truncates it to the
// minute. All scheduling instants are compared in this form.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// Day returns midnight of the naive day containing t.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
