package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/rpc"
)

type ctxKey struct{}

var (
	admin   = model.RoleAdmin
	doctor  = model.RoleDoctor
	patient = model.RolePatient
)

// Permissions lists who may call each method. Both transports consult it, and a
// method missing from it is denied to everyone.
var Permissions = map[string][]model.Role{
	rpc.MethodBookAppointment:       {patient, admin},
	rpc.MethodRescheduleAppointment: {patient, doctor, admin},
	rpc.MethodCancelAppointment:     {patient, doctor, admin},
	rpc.MethodUpdateStatus:          {doctor},
	rpc.MethodGetAppointment:        {patient, doctor, admin},
	rpc.MethodAvailableSlots:        {patient, doctor, admin},
	rpc.MethodGetSchedule:           {doctor, admin},
	rpc.MethodGetHistory:            {patient, admin},
	rpc.MethodGetUpcoming:           {patient, admin},
}

// Authorizer is the transport side of the authorization gate.
type Authorizer struct {
	gate   *auth.Gate
	public map[string]bool
	now    func() time.Time
}

func NewAuthorizer(gate *auth.Gate, publicAvailability bool, now func() time.Time) *Authorizer {
	public := map[string]bool{
		rpc.MethodLogin:    true,
		rpc.MethodRegister: true,
	}
	if publicAvailability {
		public[rpc.MethodAvailableSlots] = true
	}
	return &Authorizer{gate: gate, public: public, now: now}
}

// Check authorizes one call of method. A zero Caller with nil error means the
// method is public.
func (a *Authorizer) Check(method, authorization string) (model.Caller, error) {
	if a.public[method] {
		return model.Caller{}, nil
	}
	allowed, ok := Permissions[method]
	if !ok {
		return model.Caller{}, apperr.New(apperr.Forbidden, "method not permitted")
	}
	return a.gate.AuthorizeAny(bearer(authorization), allowed, a.now())
}

// Identify accepts a valid token of any role.
func (a *Authorizer) Identify(authorization string) (model.Caller, error) {
	return a.gate.AuthorizeAny(bearer(authorization), []model.Role{admin, doctor, patient}, a.now())
}

func (a *Authorizer) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		header := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				header = vals[0]
			}
		}
		caller, err := a.Check(info.FullMethod, header)
		if err != nil {
			return nil, err
		}
		if caller.Role.Valid() {
			ctx = WithCaller(ctx, caller)
		}
		return next(ctx, req)
	}
}

// HTTP guards a REST route with the permissions of the rpc method it mirrors.
func (a *Authorizer) HTTP(method string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := a.Check(method, r.Header.Get("Authorization"))
			if err != nil {
				apperr.WriteHTTP(w, err)
				return
			}
			if caller.Role.Valid() {
				r = r.WithContext(WithCaller(r.Context(), caller))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(header string) string {
	// token from Authorization: Bearer <jwt>
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func WithCaller(ctx context.Context, c model.Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func CallerFrom(ctx context.Context) (model.Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(model.Caller)
	return c, ok
}
