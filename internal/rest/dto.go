package rest

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"clinic-scheduling-api/internal/rpc"
)

// wire format of scheduling instants, naive wall clock
const instantLayout = "2006-01-02T15:04"

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=PATIENT DOCTOR ADMIN patient doctor admin"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
}

type registerResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type whoamiResponse struct {
	Valid  bool   `json:"valid"`
	Role   string `json:"role"`
	UserID string `json:"userId"`
}

type bookRequest struct {
	DoctorID  string `json:"doctorId" validate:"required"`
	PatientID string `json:"patientId"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required,datetime=15:04"`
}

type rescheduleRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type appointment struct {
	ID          string     `json:"id"`
	DoctorID    string     `json:"doctorId"`
	PatientID   string     `json:"patientId"`
	ScheduledAt string     `json:"scheduledAt"`
	EndAt       string     `json:"endAt"`
	Status      string     `json:"status"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type bookResponse struct {
	AppointmentID string      `json:"appointmentId"`
	Appointment   appointment `json:"appointment"`
}

type appointmentResponse struct {
	Appointment appointment `json:"appointment"`
}

type listResponse struct {
	Appointments []appointment `json:"appointments"`
}

type slotsResponse struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
}

func fromWire(p *rpc.Appointment) appointment {
	return appointment{
		ID:          p.Id,
		DoctorID:    p.DoctorId,
		PatientID:   p.PatientId,
		ScheduledAt: instant(p.ScheduledAt),
		EndAt:       instant(p.EndAt),
		Status:      p.Status,
		CreatedAt:   optTime(p.CreatedAt),
		UpdatedAt:   optTime(p.UpdatedAt),
	}
}

func fromList(l *rpc.AppointmentListResponse) listResponse {
	out := make([]appointment, len(l.Appointments))
	for i, p := range l.Appointments {
		out[i] = fromWire(p)
	}
	return listResponse{Appointments: out}
}

func instant(ts *timestamppb.Timestamp) string {
	if ts == nil {
		return ""
	}
	return ts.AsTime().Format(instantLayout)
}

func optTime(ts *timestamppb.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.AsTime()
	return &t
}
