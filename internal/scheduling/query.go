package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/timeslot"
)

const upcomingHorizon = 1 // years

type ScheduleQuery struct {
	DoctorID    string
	Start       *time.Time
	End         *time.Time
	PatientName string
}

type HistoryQuery struct {
	PatientID string
	Start     *time.Time
	End       *time.Time
}

// AvailableSlots returns the grid of date minus every slot that would conflict
// with an active appointment of the doctor, in grid order.
func (e *Engine) AvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]timeslot.TimeOfDay, error) {
	if doctorID == "" {
		return nil, apperr.New(apperr.Validation, "doctor id required")
	}
	if err := e.requireDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	day := model.Day(date)
	// appointments from the previous evening can still reach into the day
	appts, err := e.store.FindByDoctorAndRange(ctx, doctorID,
		day.Add(-model.AppointmentDuration), day.AddDate(0, 0, 1).Add(model.AppointmentDuration))
	if err != nil {
		return nil, e.internal("load doctor appointments", err)
	}

	grid := timeslot.Grid()
	free := make([]timeslot.TimeOfDay, 0, len(grid))
	for _, slot := range grid {
		if !e.blocked(appts, slot.On(day)) {
			free = append(free, slot)
		}
	}
	return free, nil
}

func (e *Engine) blocked(appts []model.Appointment, at time.Time) bool {
	for i := range appts {
		if appts[i].Active() && e.policy.Conflicts(at, appts[i].ScheduledAt) {
			return true
		}
	}
	return false
}

// Schedule lists a doctor's appointments, all statuses, ordered by time.
func (e *Engine) Schedule(ctx context.Context, caller model.Caller, q ScheduleQuery, now time.Time) ([]model.Appointment, error) {
	doctorID, err := subjectFor(caller, model.RoleDoctor, q.DoctorID)
	if err != nil {
		return nil, err
	}

	from := model.Day(now)
	if q.Start != nil {
		from = model.Day(*q.Start)
	}
	to := from.AddDate(0, 0, 8)
	if q.End != nil {
		to = model.Day(*q.End).AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return nil, apperr.New(apperr.Validation, "end date before start date")
	}

	appts, err := e.store.FindByDoctorAndRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, e.internal("load schedule", err)
	}
	if q.PatientName == "" {
		return appts, nil
	}
	return e.filterByPatientName(ctx, appts, q.PatientName)
}

func (e *Engine) filterByPatientName(ctx context.Context, appts []model.Appointment, name string) ([]model.Appointment, error) {
	needle := strings.ToLower(name)
	names := make(map[string]string)
	out := appts[:0]
	for _, a := range appts {
		n, ok := names[a.PatientID]
		if !ok {
			p, err := e.dir.Patient(ctx, a.PatientID)
			switch {
			case errors.Is(err, model.ErrNotFound):
			case err != nil:
				return nil, e.internal("lookup patient", err)
			default:
				n = strings.ToLower(p.Name)
			}
			names[a.PatientID] = n
		}
		if strings.Contains(n, needle) {
			out = append(out, a)
		}
	}
	return out, nil
}

// History lists a patient's appointments, all statuses. Without dates it covers
// the month before now.
func (e *Engine) History(ctx context.Context, caller model.Caller, q HistoryQuery, now time.Time) ([]model.Appointment, error) {
	patientID, err := subjectFor(caller, model.RolePatient, q.PatientID)
	if err != nil {
		return nil, err
	}

	to := model.Naive(now)
	if q.End != nil {
		to = model.Day(*q.End).AddDate(0, 0, 1)
	}
	from := to.AddDate(0, -1, 0)
	if q.Start != nil {
		from = model.Day(*q.Start)
	}
	if !to.After(from) {
		return nil, apperr.New(apperr.Validation, "end date before start date")
	}

	appts, err := e.store.FindByPatientAndRange(ctx, patientID, from, to)
	if err != nil {
		return nil, e.internal("load history", err)
	}
	return appts, nil
}

// Upcoming lists a patient's active appointments from now up to a year ahead.
func (e *Engine) Upcoming(ctx context.Context, caller model.Caller, patientID string, now time.Time) ([]model.Appointment, error) {
	patientID, err := subjectFor(caller, model.RolePatient, patientID)
	if err != nil {
		return nil, err
	}
	from := model.Naive(now)
	appts, err := e.store.FindByPatientAndRange(ctx, patientID, from, from.AddDate(upcomingHorizon, 0, 0))
	if err != nil {
		return nil, e.internal("load upcoming", err)
	}
	out := appts[:0]
	for _, a := range appts {
		if a.Active() {
			out = append(out, a)
		}
	}
	return out, nil
}

// subjectFor resolves whose records a listing covers. Callers of role own list
// their own; admins must name someone.
func subjectFor(caller model.Caller, own model.Role, requested string) (string, error) {
	switch caller.Role {
	case own:
		if requested != "" && requested != caller.Subject {
			return "", apperr.New(apperr.Forbidden, "cannot list another user's appointments")
		}
		return caller.Subject, nil
	case model.RoleAdmin:
		if requested == "" {
			return "", apperr.Newf(apperr.Validation, "%s id required", strings.ToLower(own.String()))
		}
		return requested, nil
	}
	return "", apperr.Newf(apperr.Forbidden, "role %s cannot list these appointments", caller.Role)
}
