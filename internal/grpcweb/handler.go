// Package grpcweb lets browsers call the gRPC service over HTTP/1.1. Frames are
// forwarded to the gRPC server untouched, so interceptors (auth, rate limiting,
// logging) apply exactly as for native clients.
package grpcweb

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"clinic-scheduling-api/internal/middleware"
)

const (
	dataFlag    = 0x00
	trailerFlag = 0x80
	maxBody     = 4 << 20
)

// Bridge translates gRPC-Web requests into calls on a gRPC connection.
type Bridge struct {
	conn grpc.ClientConnInterface
	log  zerolog.Logger
}

func New(conn grpc.ClientConnInterface, log zerolog.Logger) *Bridge {
	return &Bridge{conn: conn, log: log}
}

// Dial connects to the gRPC server at addr (e.g. "localhost:50051").
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	return conn, nil
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/grpc-web") || strings.HasPrefix(ct, "application/grpc-web-text") {
		http.Error(w, "not grpc-web", http.StatusUnsupportedMediaType)
		return
	}
	b.forward(w, r)
}

func (b *Bridge) forward(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, codes.Internal, "read body failed")
		return
	}
	payload, err := unframe(body)
	if err != nil {
		writeError(w, codes.InvalidArgument, err.Error())
		return
	}

	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	// the gRPC server only sees the bridge's loopback address
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		md.Set(middleware.ForwardedFor, ip)
	}
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	resp := &rawMsg{}
	err = b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, resp, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		st := status.Convert(err)
		b.log.Debug().Str("method", r.URL.Path).Str("code", st.Code().String()).Msg("grpc-web call failed")
		writeError(w, st.Code(), st.Message())
		return
	}
	writeSuccess(w, resp.data)
}

// unframe reads the single length-prefixed message of a unary call.
func unframe(body []byte) ([]byte, error) {
	if len(body) < 5 {
		return nil, fmt.Errorf("body too short")
	}
	if body[0] != dataFlag {
		return nil, fmt.Errorf("unsupported frame flag %#x", body[0])
	}
	n := binary.BigEndian.Uint32(body[1:5])
	if uint64(n)+5 > uint64(len(body)) {
		return nil, fmt.Errorf("incomplete frame")
	}
	return body[5 : 5+n], nil
}

type rawMsg struct{ data []byte }

// rawCodec passes bytes through. It reports "proto" so the server picks its own
// codec for the call.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(*rawMsg)
	if !ok {
		return nil, fmt.Errorf("grpcweb: cannot marshal %T", v)
	}
	return m.data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(*rawMsg)
	if !ok {
		return fmt.Errorf("grpcweb: cannot unmarshal into %T", v)
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string { return "proto" }

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

func writeError(w http.ResponseWriter, code codes.Code, msg string) {
	w.Header().Set("Content-Type", "application/grpc-web+proto")
	w.WriteHeader(http.StatusOK)
	trailer := fmt.Sprintf("grpc-status:%d\r\ngrpc-message:%s\r\n", code, msg)
	_, _ = w.Write(frame(trailerFlag, []byte(trailer)))
}

func writeSuccess(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/grpc-web+proto")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame(dataFlag, data))
	_, _ = w.Write(frame(trailerFlag, []byte("grpc-status:0\r\n")))
}
