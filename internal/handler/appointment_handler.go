package handler

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/rpc"
	"clinic-scheduling-api/internal/scheduling"
	"clinic-scheduling-api/internal/timeslot"
)

func caller(ctx context.Context) (model.Caller, error) {
	c, ok := middleware.CallerFrom(ctx)
	if !ok {
		return model.Caller{}, apperr.New(apperr.Unauthenticated, "no token")
	}
	return c, nil
}

func (h *Handler) BookAppointment(ctx context.Context, req *rpc.BookAppointmentRequest) (*rpc.BookAppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	at, err := parseInstant(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	apt, err := h.engine.Book(ctx, scheduling.BookRequest{
		DoctorID:  req.DoctorId,
		PatientID: req.PatientId,
		At:        at,
	}, c, h.now())
	if err != nil {
		return nil, err
	}
	return &rpc.BookAppointmentResponse{AppointmentId: apt.ID, Appointment: toWire(apt)}, nil
}

func (h *Handler) RescheduleAppointment(ctx context.Context, req *rpc.RescheduleAppointmentRequest) (*rpc.AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	at, err := parseInstant(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	apt, err := h.engine.Reschedule(ctx, req.Id, at, c, h.now())
	if err != nil {
		return nil, err
	}
	return &rpc.AppointmentResponse{Appointment: toWire(apt)}, nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *rpc.CancelAppointmentRequest) (*rpc.AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	apt, err := h.engine.Cancel(ctx, req.Id, c, h.now())
	if err != nil {
		return nil, err
	}
	return &rpc.AppointmentResponse{Appointment: toWire(apt)}, nil
}

func (h *Handler) UpdateStatus(ctx context.Context, req *rpc.UpdateStatusRequest) (*rpc.AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	st, err := model.ParseStatus(req.Status)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err.Error(), err)
	}
	apt, err := h.engine.UpdateStatus(ctx, req.Id, st, c, h.now())
	if err != nil {
		return nil, err
	}
	return &rpc.AppointmentResponse{Appointment: toWire(apt)}, nil
}

func (h *Handler) GetAppointment(ctx context.Context, req *rpc.GetAppointmentRequest) (*rpc.AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	apt, err := h.engine.Get(ctx, req.Id, c)
	if err != nil {
		return nil, err
	}
	return &rpc.AppointmentResponse{Appointment: toWire(apt)}, nil
}

// AvailableSlots may run without a caller when availability is public.
func (h *Handler) AvailableSlots(ctx context.Context, req *rpc.AvailableSlotsRequest) (*rpc.AvailableSlotsResponse, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	slots, err := h.engine.AvailableSlots(ctx, req.DoctorId, date)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return &rpc.AvailableSlotsResponse{Date: date.Format(time.DateOnly), Slots: out}, nil
}

func (h *Handler) GetSchedule(ctx context.Context, req *rpc.ScheduleRequest) (*rpc.AppointmentListResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	apts, err := h.engine.Schedule(ctx, c, scheduling.ScheduleQuery{
		DoctorID:    req.DoctorId,
		Start:       start,
		End:         end,
		PatientName: req.PatientName,
	}, h.now())
	if err != nil {
		return nil, err
	}
	return toList(apts), nil
}

func (h *Handler) GetHistory(ctx context.Context, req *rpc.HistoryRequest) (*rpc.AppointmentListResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	apts, err := h.engine.History(ctx, c, scheduling.HistoryQuery{
		PatientID: req.PatientId,
		Start:     start,
		End:       end,
	}, h.now())
	if err != nil {
		return nil, err
	}
	return toList(apts), nil
}

func (h *Handler) GetUpcoming(ctx context.Context, req *rpc.UpcomingRequest) (*rpc.AppointmentListResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	apts, err := h.engine.Upcoming(ctx, c, req.PatientId, h.now())
	if err != nil {
		return nil, err
	}
	return toList(apts), nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, apperr.New(apperr.Validation, "date required")
	}
	d, err := timeslot.ParseDate(s)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.Validation, err.Error(), err)
	}
	return d, nil
}

func parseInstant(date, clock string) (time.Time, error) {
	d, err := parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if clock == "" {
		return time.Time{}, apperr.New(apperr.Validation, "time required")
	}
	tod, err := timeslot.Parse(clock)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.Validation, err.Error(), err)
	}
	return tod.On(d), nil
}

// parseRange treats empty dates as unset.
func parseRange(start, end string) (*time.Time, *time.Time, error) {
	var s, e *time.Time
	if start != "" {
		d, err := parseDate(start)
		if err != nil {
			return nil, nil, err
		}
		s = &d
	}
	if end != "" {
		d, err := parseDate(end)
		if err != nil {
			return nil, nil, err
		}
		e = &d
	}
	return s, e, nil
}

func toList(apts []model.Appointment) *rpc.AppointmentListResponse {
	out := make([]*rpc.Appointment, len(apts))
	for i := range apts {
		out[i] = toWire(&apts[i])
	}
	return &rpc.AppointmentListResponse{Appointments: out}
}

func toWire(a *model.Appointment) *rpc.Appointment {
	p := &rpc.Appointment{
		Id:          a.ID,
		DoctorId:    a.DoctorID,
		PatientId:   a.PatientID,
		ScheduledAt: timestamppb.New(a.ScheduledAt),
		EndAt:       timestamppb.New(a.EndAt()),
		Status:      string(a.Status),
	}
	if !a.CreatedAt.IsZero() {
		p.CreatedAt = timestamppb.New(a.CreatedAt)
	}
	if !a.UpdatedAt.IsZero() {
		p.UpdatedAt = timestamppb.New(a.UpdatedAt)
	}
	return p
}
