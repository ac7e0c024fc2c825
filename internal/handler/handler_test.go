package handler_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/handler"
	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/rpc"
	"clinic-scheduling-api/internal/scheduling"
	"clinic-scheduling-api/internal/store"
)

var now = time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC)

const password = "correct horse"

type env struct {
	client *rpc.Client
	h      *handler.Handler
	tokens *auth.Authority
	mem    *store.Memory
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return now }

	mem := store.NewMemory(model.IntervalOverlap)
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, mem.CreateDoctor(ctx, &model.Doctor{ID: "7", Name: "Dr. Seven", Email: "seven@clinic.test", PasswordHash: hash}))
	require.NoError(t, mem.CreatePatient(ctx, &model.Patient{ID: "p1", Name: "Ada Lovelace", Email: "ada@clinic.test", PasswordHash: hash}))
	require.NoError(t, mem.CreatePatient(ctx, &model.Patient{ID: "p2", Name: "Alan Turing", Email: "alan@clinic.test", PasswordHash: hash}))
	require.NoError(t, mem.CreateAdmin(ctx, &model.Account{ID: "root", Name: "Root", Email: "root@clinic.test", PasswordHash: hash}))

	tokens := auth.NewAuthority("test-secret", 15*time.Minute)
	engine := scheduling.New(mem, mem)
	h := handler.New(engine, mem, tokens, handler.WithClock(clock))

	rctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	authz := middleware.NewAuthorizer(auth.NewGate(tokens), true, clock)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(middleware.NewRateLimiter(rctx, 100, 100)),
			authz.Unary(),
		),
	)
	rpc.RegisterScheduleServiceServer(srv, h)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &env{client: rpc.NewClient(conn), h: h, tokens: tokens, mem: mem}
}

func (e *env) as(t *testing.T, subject string, role model.Role) context.Context {
	t.Helper()
	tok, err := e.tokens.Issue(subject, role, now)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok.Raw)
}

func TestRegisterAndLogin(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	reg, err := e.client.Register(ctx, &rpc.RegisterRequest{Email: "grace@clinic.test", Password: password, Name: "Grace Hopper"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.UserId)
	assert.NotEmpty(t, reg.Token)

	login, err := e.client.Login(ctx, &rpc.LoginRequest{Email: "GRACE@clinic.test", Password: password})
	require.NoError(t, err)
	assert.Equal(t, reg.UserId, login.UserId)
	assert.Equal(t, "PATIENT", login.Role)
	assert.True(t, login.ExpiresAt.AsTime().Equal(now.Add(15*time.Minute)))

	caller, err := e.tokens.Verify(login.Token, now)
	require.NoError(t, err)
	assert.Equal(t, model.Caller{Role: model.RolePatient, Subject: reg.UserId}, caller)

	_, err = e.client.Register(ctx, &rpc.RegisterRequest{Email: "grace@clinic.test", Password: password, Name: "Other"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestLoginFailures(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *rpc.LoginRequest
		want codes.Code
	}{
		{"wrong password", &rpc.LoginRequest{Email: "ada@clinic.test", Password: "nope"}, codes.Unauthenticated},
		{"unknown email", &rpc.LoginRequest{Email: "nobody@clinic.test", Password: password}, codes.Unauthenticated},
		{"wrong role table", &rpc.LoginRequest{Email: "ada@clinic.test", Password: password, Role: "DOCTOR"}, codes.Unauthenticated},
		{"unknown role", &rpc.LoginRequest{Email: "ada@clinic.test", Password: password, Role: "NURSE"}, codes.InvalidArgument},
		{"missing password", &rpc.LoginRequest{Email: "ada@clinic.test"}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.client.Login(ctx, tt.req)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestLoginPerRole(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	doc, err := e.client.Login(ctx, &rpc.LoginRequest{Email: "seven@clinic.test", Password: password, Role: "doctor"})
	require.NoError(t, err)
	assert.Equal(t, "7", doc.UserId)
	assert.Equal(t, "DOCTOR", doc.Role)

	adm, err := e.client.Login(ctx, &rpc.LoginRequest{Email: "root@clinic.test", Password: password, Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", adm.Role)
}

func TestRegisterValidation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	for _, req := range []*rpc.RegisterRequest{
		{Email: "", Password: password, Name: "X"},
		{Email: "not-an-email", Password: password, Name: "X"},
		{Email: "short@clinic.test", Password: "short", Name: "X"},
		{Email: "noname@clinic.test", Password: password, Name: "  "},
	} {
		_, err := e.client.Register(ctx, req)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), req.Email)
	}
}

func TestDoctorSevenFlow(t *testing.T) {
	e := setup(t)
	ada := e.as(t, "p1", model.RolePatient)
	alan := e.as(t, "p2", model.RolePatient)

	booked, err := e.client.BookAppointment(ada, &rpc.BookAppointmentRequest{DoctorId: "7", Date: "2025-06-01", Time: "10:00"})
	require.NoError(t, err)
	require.NotEmpty(t, booked.AppointmentId)
	assert.Equal(t, "p1", booked.Appointment.PatientId)
	assert.Equal(t, "BOOKED", booked.Appointment.Status)
	assert.True(t, booked.Appointment.ScheduledAt.AsTime().Equal(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, booked.Appointment.EndAt.AsTime().Equal(time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)))

	// availability is public
	slots, err := e.client.AvailableSlots(context.Background(), &rpc.AvailableSlotsRequest{DoctorId: "7", Date: "2025-06-01"})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", slots.Date)
	assert.NotContains(t, slots.Slots, "10:00")
	assert.NotContains(t, slots.Slots, "10:30")
	assert.Contains(t, slots.Slots, "11:00")

	_, err = e.client.BookAppointment(alan, &rpc.BookAppointmentRequest{DoctorId: "7", Date: "2025-06-01", Time: "10:00"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	cancelled, err := e.client.CancelAppointment(ada, &rpc.CancelAppointmentRequest{Id: booked.AppointmentId})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Appointment.Status)

	slots, err = e.client.AvailableSlots(context.Background(), &rpc.AvailableSlotsRequest{DoctorId: "7", Date: "2025-06-01"})
	require.NoError(t, err)
	assert.Contains(t, slots.Slots, "10:00")
	assert.Len(t, slots.Slots, 16)

	_, err = e.client.BookAppointment(alan, &rpc.BookAppointmentRequest{DoctorId: "7", Date: "2025-06-01", Time: "10:00"})
	assert.NoError(t, err)
}

func TestPermissions(t *testing.T) {
	e := setup(t)
	ada := e.as(t, "p1", model.RolePatient)
	doc := e.as(t, "7", model.RoleDoctor)

	_, err := e.client.BookAppointment(context.Background(), &rpc.BookAppointmentRequest{DoctorId: "7", Date: "2025-06-01", Time: "10:00"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = e.client.BookAppointment(doc, &rpc.BookAppointmentRequest{DoctorId: "7", PatientId: "p1", Date: "2025-06-01", Time: "10:00"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = e.client.GetSchedule(ada, &rpc.ScheduleRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = e.client.GetHistory(doc, &rpc.HistoryRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	expired, err := e.tokens.Issue("p1", model.RolePatient, now.Add(-time.Hour))
	require.NoError(t, err)
	stale := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+expired.Raw)
	_, err = e.client.GetUpcoming(stale, &rpc.UpcomingRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestStatusLifecycle(t *testing.T) {
	e := setup(t)
	ada := e.as(t, "p1", model.RolePatient)
	doc := e.as(t, "7", model.RoleDoctor)

	booked, err := e.client.BookAppointment(ada, &rpc.BookAppointmentRequest{DoctorId: "7", Date: "2025-06-01", Time: "14:00"})
	require.NoError(t, err)
	id := booked.AppointmentId

	_, err = e.client.UpdateStatus(ada, &rpc.UpdateStatusRequest{Id: id, Status: "CONFIRMED"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = e.client.UpdateStatus(doc, &rpc.UpdateStatusRequest{Id: id, Status: "bogus"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	for _, st := range []string{"CONFIRMED", "COMPLETED"} {
		resp, err := e.client.UpdateStatus(doc, &rpc.UpdateStatusRequest{Id: id, Status: st})
		require.NoError(t, err)
		assert.Equal(t, st, resp.Appointment.Status)
	}

	_, err = e.client.CancelAppointment(ada, &rpc.CancelAppointmentRequest{Id: id})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	got, err := e.client.GetAppointment(doc, &rpc.GetAppointmentRequest{Id: id})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", got.Appointment.Status)
}

func TestRescheduleAndListings(t *testing.T) {
	e := setup(t)
	ada := e.as(t, "p1", model.RolePatient)
	doc := e.as(t, "7", model.RoleDoctor)
	root := e.as(t, "root", model.RoleAdmin)

	booked, err := e.client.BookAppointment(root, &rpc.BookAppointmentRequest{DoctorId: "7", PatientId: "p1", Date: "2025-06-01", Time: "09:00"})
	require.NoError(t, err)

	moved, err := e.client.RescheduleAppointment(ada, &rpc.RescheduleAppointmentRequest{Id: booked.AppointmentId, Date: "2025-06-02", Time: "15:30"})
	require.NoError(t, err)
	assert.True(t, moved.Appointment.ScheduledAt.AsTime().Equal(time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)))

	sched, err := e.client.GetSchedule(doc, &rpc.ScheduleRequest{StartDate: "2025-06-01", EndDate: "2025-06-03", PatientName: "lovelace"})
	require.NoError(t, err)
	require.Len(t, sched.Appointments, 1)
	assert.Equal(t, booked.AppointmentId, sched.Appointments[0].Id)

	sched, err = e.client.GetSchedule(doc, &rpc.ScheduleRequest{StartDate: "2025-06-01", EndDate: "2025-06-03", PatientName: "turing"})
	require.NoError(t, err)
	assert.Empty(t, sched.Appointments)

	up, err := e.client.GetUpcoming(ada, &rpc.UpcomingRequest{})
	require.NoError(t, err)
	require.Len(t, up.Appointments, 1)

	_, err = e.client.GetUpcoming(root, &rpc.UpcomingRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	up, err = e.client.GetUpcoming(root, &rpc.UpcomingRequest{PatientId: "p1"})
	require.NoError(t, err)
	assert.Len(t, up.Appointments, 1)

	_, err = e.client.GetSchedule(doc, &rpc.ScheduleRequest{StartDate: "2025-06-05", EndDate: "2025-06-01"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestBadInput(t *testing.T) {
	e := setup(t)
	ada := e.as(t, "p1", model.RolePatient)

	tests := []struct {
		name string
		req  *rpc.BookAppointmentRequest
		want codes.Code
	}{
		{"bad date", &rpc.BookAppointmentRequest{DoctorId: "7", Date: "01/06/2025", Time: "10:00"}, codes.InvalidArgument},
		{"bad time", &rpc.BookAppointmentRequest{DoctorId: "7", Date: "2025-06-01", Time: "10am"}, codes.InvalidArgument},
		{"missing time", &rpc.BookAppointmentRequest{DoctorId: "7", Date: "2025-06-01"}, codes.InvalidArgument},
		{"past", &rpc.BookAppointmentRequest{DoctorId: "7", Date: "2025-05-29", Time: "10:00"}, codes.InvalidArgument},
		{"unknown doctor", &rpc.BookAppointmentRequest{DoctorId: "99", Date: "2025-06-01", Time: "10:00"}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.client.BookAppointment(ada, tt.req)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}

	_, err := e.client.AvailableSlots(context.Background(), &rpc.AvailableSlotsRequest{DoctorId: "7"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHandlerWithoutCaller(t *testing.T) {
	e := setup(t)

	_, err := e.h.GetUpcoming(context.Background(), &rpc.UpcomingRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
