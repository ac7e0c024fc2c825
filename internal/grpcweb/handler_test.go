package grpcweb

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"clinic-scheduling-api/internal/middleware"
	"clinic-scheduling-api/internal/rpc"
)

type stubServer struct {
	rpc.ScheduleServiceServer
}

func (stubServer) AvailableSlots(_ context.Context, req *rpc.AvailableSlotsRequest) (*rpc.AvailableSlotsResponse, error) {
	return &rpc.AvailableSlotsResponse{Date: req.Date, Slots: []string{"09:00"}}, nil
}

func (stubServer) GetUpcoming(ctx context.Context, _ *rpc.UpcomingRequest) (*rpc.AppointmentListResponse, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if len(md.Get("authorization")) == 0 {
		return nil, status.Error(codes.Unauthenticated, "no token")
	}
	return &rpc.AppointmentListResponse{}, nil
}

func (stubServer) Login(_ context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	return &rpc.LoginResponse{UserId: req.Email}, nil
}

func newBridge(t *testing.T) *Bridge {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ForceServerCodec(rpc.Codec{}))
	rpc.RegisterScheduleServiceServer(srv, stubServer{})
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(conn, zerolog.Nop())
}

func post(b *Bridge, method string, body []byte, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, method, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/grpc-web+proto")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	b.ServeHTTP(rec, req)
	return rec
}

// frames splits a response body into its flag-tagged frames.
func frames(t *testing.T, body []byte) map[byte][]byte {
	t.Helper()
	out := map[byte][]byte{}
	for len(body) > 0 {
		require.GreaterOrEqual(t, len(body), 5)
		n := binary.BigEndian.Uint32(body[1:5])
		out[body[0]] = body[5 : 5+n]
		body = body[5+n:]
	}
	return out
}

func TestForwardSuccess(t *testing.T) {
	b := newBridge(t)
	payload := (&rpc.AvailableSlotsRequest{DoctorId: "7", Date: "2025-06-01"}).AppendWire(nil)

	rec := post(b, rpc.MethodAvailableSlots, frame(dataFlag, payload), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/grpc-web+proto", rec.Header().Get("Content-Type"))

	fs := frames(t, rec.Body.Bytes())
	resp := &rpc.AvailableSlotsResponse{}
	require.NoError(t, resp.UnmarshalWire(fs[dataFlag]))
	assert.Equal(t, "2025-06-01", resp.Date)
	assert.Equal(t, []string{"09:00"}, resp.Slots)
	assert.Equal(t, "grpc-status:0\r\n", string(fs[trailerFlag]))
}

func TestForwardsAuthorization(t *testing.T) {
	b := newBridge(t)
	body := frame(dataFlag, nil)

	rec := post(b, rpc.MethodGetUpcoming, body, nil)
	fs := frames(t, rec.Body.Bytes())
	assert.Contains(t, string(fs[trailerFlag]), "grpc-status:16")

	rec = post(b, rpc.MethodGetUpcoming, body, http.Header{"Authorization": {"Bearer x"}})
	fs = frames(t, rec.Body.Bytes())
	assert.Equal(t, "grpc-status:0\r\n", string(fs[trailerFlag]))
}

func TestRejectsBadRequests(t *testing.T) {
	b := newBridge(t)

	rec := post(b, rpc.MethodAvailableSlots, []byte{0, 0, 0}, nil)
	assert.Contains(t, string(frames(t, rec.Body.Bytes())[trailerFlag]), "grpc-status:3")

	rec = post(b, rpc.MethodAvailableSlots, []byte{0, 0, 0, 0, 9, 1}, nil)
	assert.Contains(t, string(frames(t, rec.Body.Bytes())[trailerFlag]), "incomplete frame")

	req := httptest.NewRequest(http.MethodGet, rpc.MethodAvailableSlots, nil)
	rr := httptest.NewRecorder()
	b.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req = httptest.NewRequest(http.MethodPost, rpc.MethodAvailableSlots, nil)
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	b.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

// Over a real loopback listener every bridged call arrives from 127.0.0.1, so
// the limiter must key on the forwarded browser address.
func TestRateLimitPerBrowser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(middleware.RateLimit(middleware.NewRateLimiter(ctx, 0.001, 1))),
	)
	rpc.RegisterScheduleServiceServer(srv, stubServer{})
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := Dial(lis.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	b := New(conn, zerolog.Nop())

	login := func(remote string) string {
		payload := (&rpc.LoginRequest{Email: "ada@clinic.test", Password: "x"}).AppendWire(nil)
		req := httptest.NewRequest(http.MethodPost, rpc.MethodLogin, bytes.NewReader(frame(dataFlag, payload)))
		req.Header.Set("Content-Type", "application/grpc-web+proto")
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		b.ServeHTTP(rec, req)
		return string(frames(t, rec.Body.Bytes())[trailerFlag])
	}

	assert.Equal(t, "grpc-status:0\r\n", login("203.0.113.1:5000"))
	assert.Contains(t, login("203.0.113.1:5001"), "grpc-status:8")
	assert.Equal(t, "grpc-status:0\r\n", login("198.51.100.7:6000"))
}
