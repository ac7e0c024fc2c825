package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/model"
)

type BookRequest struct {
	DoctorID  string
	PatientID string
	At        time.Time
}

// Book creates a BOOKED appointment. Patients book for themselves; admins must
// name the patient.
func (e *Engine) Book(ctx context.Context, req BookRequest, caller model.Caller, now time.Time) (*model.Appointment, error) {
	a, err := e.book(ctx, req, caller, now)
	e.metrics.Booking(bookingResult(err))
	return a, err
}

func (e *Engine) book(ctx context.Context, req BookRequest, caller model.Caller, now time.Time) (*model.Appointment, error) {
	if req.DoctorID == "" {
		return nil, apperr.New(apperr.Validation, "doctor id required")
	}
	switch caller.Role {
	case model.RolePatient:
		if req.PatientID == "" {
			req.PatientID = caller.Subject
		}
		if req.PatientID != caller.Subject {
			return nil, apperr.New(apperr.Forbidden, "patients may only book for themselves")
		}
	case model.RoleAdmin:
		if req.PatientID == "" {
			return nil, apperr.New(apperr.Validation, "patient id required")
		}
	default:
		return nil, apperr.Newf(apperr.Forbidden, "role %s cannot book", caller.Role)
	}

	at := model.Naive(req.At)
	if !at.After(model.Naive(now)) {
		return nil, apperr.New(apperr.InvalidTime, "appointment must be in the future")
	}
	if err := e.requireDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}
	if err := e.requirePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	release, err := e.lockSlot(ctx, req.DoctorID, at)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.checkFree(ctx, req.DoctorID, at, ""); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		ID:          e.newID(),
		DoctorID:    req.DoctorID,
		PatientID:   req.PatientID,
		ScheduledAt: at,
		Status:      model.StatusBooked,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// the store constraint catches whatever raced past checkFree
	if err := e.store.Save(ctx, apt); err != nil {
		return nil, e.saveErr(err)
	}
	// the row is committed; a slow broker must not keep the slot locked
	release()

	e.log.Info().
		Str("appointment_id", apt.ID).
		Str("doctor_id", apt.DoctorID).
		Str("patient_id", apt.PatientID).
		Time("scheduled_at", apt.ScheduledAt).
		Msg("appointment booked")
	e.publish(ctx, model.Event{Type: model.EventBooked, Appointment: *apt, Actor: caller, At: now})
	return apt, nil
}

// Reschedule moves an active appointment to newAt for the same doctor.
func (e *Engine) Reschedule(ctx context.Context, id string, newAt time.Time, caller model.Caller, now time.Time) (*model.Appointment, error) {
	apt, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(caller, apt) {
		return nil, apperr.New(apperr.Forbidden, "not your appointment")
	}
	if !apt.Active() {
		return nil, apperr.Newf(apperr.InvalidTransition, "cannot reschedule a %s appointment", apt.Status)
	}
	at := model.Naive(newAt)
	if !at.After(model.Naive(now)) {
		return nil, apperr.New(apperr.InvalidTime, "appointment must be in the future")
	}
	if at.Equal(apt.ScheduledAt) {
		return apt, nil
	}

	release, err := e.lockSlot(ctx, apt.DoctorID, at)
	if err != nil {
		return nil, err
	}
	defer release()

	// exclude self so moving within its own window is allowed
	if err := e.checkFree(ctx, apt.DoctorID, at, apt.ID); err != nil {
		return nil, err
	}

	prev := *apt
	apt.ScheduledAt = at
	apt.UpdatedAt = now
	if err := e.store.Save(ctx, apt); err != nil {
		return nil, e.saveErr(err)
	}
	release()
	e.publish(ctx, model.Event{Type: model.EventRescheduled, Appointment: *apt, Previous: &prev, Actor: caller, At: now})
	return apt, nil
}

// Cancel is idempotent: cancelling a cancelled appointment returns it unchanged.
func (e *Engine) Cancel(ctx context.Context, id string, caller model.Caller, now time.Time) (*model.Appointment, error) {
	apt, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(caller, apt) {
		return nil, apperr.New(apperr.Forbidden, "not your appointment")
	}
	if apt.Status == model.StatusCancelled {
		return apt, nil
	}
	return e.transition(ctx, apt, model.StatusCancelled, caller, now)
}

// UpdateStatus is reserved for the assigned doctor.
func (e *Engine) UpdateStatus(ctx context.Context, id string, to model.Status, caller model.Caller, now time.Time) (*model.Appointment, error) {
	if caller.Role != model.RoleDoctor {
		return nil, apperr.New(apperr.Forbidden, "only doctors may update status")
	}
	if !to.Valid() {
		return nil, apperr.Newf(apperr.Validation, "unknown status %q", to)
	}
	apt, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.DoctorID != caller.Subject {
		return nil, apperr.New(apperr.Forbidden, "not your appointment")
	}
	return e.transition(ctx, apt, to, caller, now)
}

// Get hides appointments the caller does not own behind NotFound.
func (e *Engine) Get(ctx context.Context, id string, caller model.Caller) (*model.Appointment, error) {
	apt, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(caller, apt) {
		return nil, apperr.New(apperr.NotFound, "appointment not found")
	}
	return apt, nil
}

func (e *Engine) transition(ctx context.Context, apt *model.Appointment, to model.Status, caller model.Caller, now time.Time) (*model.Appointment, error) {
	if !model.CanTransition(apt.Status, to) {
		return nil, apperr.Newf(apperr.InvalidTransition, "cannot move appointment from %s to %s", apt.Status, to)
	}
	prev := *apt
	apt.Status = to
	apt.UpdatedAt = now
	if err := e.store.Save(ctx, apt); err != nil {
		return nil, e.saveErr(err)
	}
	e.metrics.Transition(to)

	typ := model.EventStatusChanged
	if to == model.StatusCancelled {
		typ = model.EventCancelled
	}
	e.publish(ctx, model.Event{Type: typ, Appointment: *apt, Previous: &prev, Actor: caller, At: now})
	return apt, nil
}

func owns(c model.Caller, a *model.Appointment) bool {
	switch c.Role {
	case model.RoleAdmin:
		return true
	case model.RolePatient:
		return a.PatientID == c.Subject
	case model.RoleDoctor:
		return a.DoctorID == c.Subject
	}
	return false
}

func (e *Engine) load(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperr.New(apperr.Validation, "appointment id required")
	}
	apt, err := e.store.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "appointment not found")
	}
	if err != nil {
		return nil, e.internal("load appointment", err)
	}
	return apt, nil
}

func (e *Engine) requireDoctor(ctx context.Context, id string) error {
	_, err := e.dir.Doctor(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return apperr.Newf(apperr.NotFound, "doctor %s not found", id)
	}
	if err != nil {
		return e.internal("lookup doctor", err)
	}
	return nil
}

func (e *Engine) requirePatient(ctx context.Context, id string) error {
	_, err := e.dir.Patient(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return apperr.Newf(apperr.NotFound, "patient %s not found", id)
	}
	if err != nil {
		return e.internal("lookup patient", err)
	}
	return nil
}

func (e *Engine) checkFree(ctx context.Context, doctorID string, at time.Time, excludeID string) error {
	from, to := e.policy.Window(at)
	taken, err := e.store.ExistsConflict(ctx, doctorID, from, to, excludeID)
	if err != nil {
		return e.internal("conflict check", err)
	}
	if taken {
		return apperr.New(apperr.SlotTaken, "time slot already booked")
	}
	return nil
}

func (e *Engine) saveErr(err error) error {
	if errors.Is(err, model.ErrConflict) {
		return apperr.New(apperr.SlotTaken, "time slot already booked")
	}
	return e.internal("save appointment", err)
}

// lockSlot serialises writers of one (doctor, instant) across replicas. A busy
// lock means a concurrent booking of the same slot, so it reads as SlotTaken.
// Lock backend failures are logged and ignored since the store stays authoritative.
// The returned release may be called more than once.
func (e *Engine) lockSlot(ctx context.Context, doctorID string, at time.Time) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("slot:%s:%s", doctorID, at.Format("2006-01-02T15:04"))
	token, ok, err := e.locker.TryLock(ctx, key, e.lockTTL)
	if err != nil {
		e.log.Warn().Err(err).Str("key", key).Msg("slot lock unavailable")
		return func() {}, nil
	}
	if !ok {
		return nil, apperr.New(apperr.SlotTaken, "time slot already booked")
	}
	return sync.OnceFunc(func() {
		// release even if the request context is already done
		if err := e.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			e.log.Warn().Err(err).Str("key", key).Msg("slot unlock failed")
		}
	}), nil
}

func (e *Engine) publish(ctx context.Context, ev model.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		e.log.Warn().Err(err).
			Str("event", string(ev.Type)).
			Str("appointment_id", ev.Appointment.ID).
			Msg("publish event failed")
	}
}

func (e *Engine) internal(msg string, err error) error {
	e.log.Error().Err(err).Msg(msg)
	return apperr.Wrap(apperr.Internal, "internal error", fmt.Errorf("%s: %w", msg, err))
}

func bookingResult(err error) string {
	if err == nil {
		return "booked"
	}
	switch apperr.KindOf(err) {
	case apperr.SlotTaken:
		return "slot_taken"
	case apperr.Internal:
		return "error"
	}
	return "rejected"
}
