package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "scheduling.v1.ScheduleService"

// Full method names, as seen by interceptors.
const (
	MethodLogin                 = "/" + ServiceName + "/Login"
	MethodRegister              = "/" + ServiceName + "/Register"
	MethodBookAppointment       = "/" + ServiceName + "/BookAppointment"
	MethodRescheduleAppointment = "/" + ServiceName + "/RescheduleAppointment"
	MethodCancelAppointment     = "/" + ServiceName + "/CancelAppointment"
	MethodUpdateStatus          = "/" + ServiceName + "/UpdateStatus"
	MethodGetAppointment        = "/" + ServiceName + "/GetAppointment"
	MethodAvailableSlots        = "/" + ServiceName + "/AvailableSlots"
	MethodGetSchedule           = "/" + ServiceName + "/GetSchedule"
	MethodGetHistory            = "/" + ServiceName + "/GetHistory"
	MethodGetUpcoming           = "/" + ServiceName + "/GetUpcoming"
)

type ScheduleServiceServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	BookAppointment(context.Context, *BookAppointmentRequest) (*BookAppointmentResponse, error)
	RescheduleAppointment(context.Context, *RescheduleAppointmentRequest) (*AppointmentResponse, error)
	CancelAppointment(context.Context, *CancelAppointmentRequest) (*AppointmentResponse, error)
	UpdateStatus(context.Context, *UpdateStatusRequest) (*AppointmentResponse, error)
	GetAppointment(context.Context, *GetAppointmentRequest) (*AppointmentResponse, error)
	AvailableSlots(context.Context, *AvailableSlotsRequest) (*AvailableSlotsResponse, error)
	GetSchedule(context.Context, *ScheduleRequest) (*AppointmentListResponse, error)
	GetHistory(context.Context, *HistoryRequest) (*AppointmentListResponse, error)
	GetUpcoming(context.Context, *UpcomingRequest) (*AppointmentListResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScheduleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", ScheduleServiceServer.Login),
		unary("Register", ScheduleServiceServer.Register),
		unary("BookAppointment", ScheduleServiceServer.BookAppointment),
		unary("RescheduleAppointment", ScheduleServiceServer.RescheduleAppointment),
		unary("CancelAppointment", ScheduleServiceServer.CancelAppointment),
		unary("UpdateStatus", ScheduleServiceServer.UpdateStatus),
		unary("GetAppointment", ScheduleServiceServer.GetAppointment),
		unary("AvailableSlots", ScheduleServiceServer.AvailableSlots),
		unary("GetSchedule", ScheduleServiceServer.GetSchedule),
		unary("GetHistory", ScheduleServiceServer.GetHistory),
		unary("GetUpcoming", ScheduleServiceServer.GetUpcoming),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scheduling/v1/schedule.proto",
}

func RegisterScheduleServiceServer(s grpc.ServiceRegistrar, srv ScheduleServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed server method to the untyped grpc handler signature.
func unary[Req any, PReq interface {
	*Req
	Message
}, Resp any](name string, call func(ScheduleServiceServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ScheduleServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(PReq))
			})
		},
	}
}

// Client is a typed client for the service. Calls always use Codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any, PResp interface {
	*Resp
	Message
}](ctx context.Context, cc grpc.ClientConnInterface, method string, in Message, opts []grpc.CallOption) (PResp, error) {
	out := PResp(new(Resp))
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *Client) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*BookAppointmentResponse, error) {
	return invoke[BookAppointmentResponse](ctx, c.cc, MethodBookAppointment, in, opts)
}

func (c *Client) RescheduleAppointment(ctx context.Context, in *RescheduleAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, MethodRescheduleAppointment, in, opts)
}

func (c *Client) CancelAppointment(ctx context.Context, in *CancelAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, MethodCancelAppointment, in, opts)
}

func (c *Client) UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, MethodUpdateStatus, in, opts)
}

func (c *Client) GetAppointment(ctx context.Context, in *GetAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, MethodGetAppointment, in, opts)
}

func (c *Client) AvailableSlots(ctx context.Context, in *AvailableSlotsRequest, opts ...grpc.CallOption) (*AvailableSlotsResponse, error) {
	return invoke[AvailableSlotsResponse](ctx, c.cc, MethodAvailableSlots, in, opts)
}

func (c *Client) GetSchedule(ctx context.Context, in *ScheduleRequest, opts ...grpc.CallOption) (*AppointmentListResponse, error) {
	return invoke[AppointmentListResponse](ctx, c.cc, MethodGetSchedule, in, opts)
}

func (c *Client) GetHistory(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*AppointmentListResponse, error) {
	return invoke[AppointmentListResponse](ctx, c.cc, MethodGetHistory, in, opts)
}

func (c *Client) GetUpcoming(ctx context.Context, in *UpcomingRequest, opts ...grpc.CallOption) (*AppointmentListResponse, error) {
	return invoke[AppointmentListResponse](ctx, c.cc, MethodGetUpcoming, in, opts)
}
