package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/rpc"
)

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	resp, err := a.h.Login(r.Context(), &rpc.LoginRequest{Email: req.Email, Password: req.Password, Role: req.Role})
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     resp.Token,
		UserID:    resp.UserId,
		Role:      resp.Role,
		ExpiresAt: resp.ExpiresAt.AsTime(),
	})
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	resp, err := a.h.Register(r.Context(), &rpc.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{UserID: resp.UserId, Token: resp.Token})
}

func (a *api) whoami(w http.ResponseWriter, r *http.Request) {
	caller, err := a.authz.Identify(r.Header.Get("Authorization"))
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, whoamiResponse{Valid: true, Role: caller.Role.String(), UserID: caller.Subject})
}

// Booking reports every rejection of the request itself as 400.
var bookStatuses = map[apperr.Kind]int{
	apperr.SlotTaken: http.StatusBadRequest,
	apperr.NotFound:  http.StatusBadRequest,
}

func (a *api) book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(r, &req); err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	resp, err := a.h.BookAppointment(r.Context(), &rpc.BookAppointmentRequest{
		DoctorId:  req.DoctorID,
		PatientId: req.PatientID,
		Date:      req.Date,
		Time:      req.Time,
	})
	if err != nil {
		apperr.WriteHTTPAs(w, err, bookStatuses)
		return
	}
	writeJSON(w, http.StatusOK, bookResponse{AppointmentID: resp.AppointmentId, Appointment: fromWire(resp.Appointment)})
}

func (a *api) reschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := decode(r, &req); err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	a.one(w)(a.h.RescheduleAppointment(r.Context(), &rpc.RescheduleAppointmentRequest{
		Id:   chi.URLParam(r, "id"),
		Date: req.Date,
		Time: req.Time,
	}))
}

func (a *api) cancel(w http.ResponseWriter, r *http.Request) {
	a.one(w)(a.h.CancelAppointment(r.Context(), &rpc.CancelAppointmentRequest{Id: chi.URLParam(r, "id")}))
}

func (a *api) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	a.one(w)(a.h.UpdateStatus(r.Context(), &rpc.UpdateStatusRequest{Id: chi.URLParam(r, "id"), Status: req.Status}))
}

func (a *api) get(w http.ResponseWriter, r *http.Request) {
	a.one(w)(a.h.GetAppointment(r.Context(), &rpc.GetAppointmentRequest{Id: chi.URLParam(r, "id")}))
}

func (a *api) availableSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := a.h.AvailableSlots(r.Context(), &rpc.AvailableSlotsRequest{DoctorId: q.Get("doctorId"), Date: q.Get("date")})
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	slots := resp.Slots
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: resp.Date, AvailableSlots: slots})
}

func (a *api) upcoming(w http.ResponseWriter, r *http.Request) {
	a.list(w)(a.h.GetUpcoming(r.Context(), &rpc.UpcomingRequest{PatientId: r.URL.Query().Get("patientId")}))
}

func (a *api) schedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a.list(w)(a.h.GetSchedule(r.Context(), &rpc.ScheduleRequest{
		DoctorId:    q.Get("doctorId"),
		StartDate:   q.Get("startDate"),
		EndDate:     q.Get("endDate"),
		PatientName: q.Get("patientName"),
	}))
}

func (a *api) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a.list(w)(a.h.GetHistory(r.Context(), &rpc.HistoryRequest{
		PatientId: q.Get("patientId"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}))
}

func (a *api) one(w http.ResponseWriter) func(*rpc.AppointmentResponse, error) {
	return func(resp *rpc.AppointmentResponse, err error) {
		if err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointmentResponse{Appointment: fromWire(resp.Appointment)})
	}
}

func (a *api) list(w http.ResponseWriter) func(*rpc.AppointmentListResponse, error) {
	return func(resp *rpc.AppointmentListResponse, err error) {
		if err != nil {
			apperr.WriteHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fromList(resp))
	}
}
