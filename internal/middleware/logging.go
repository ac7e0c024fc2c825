package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/metrics"
)

// Logger logs one line per gRPC call and records it in m (which may be nil).
func Logger(log zerolog.Logger, m *metrics.Recorder) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)
		took := time.Since(start)

		evt := log.Info()
		if err != nil {
			evt = log.Warn()
			if apperr.KindOf(err) == apperr.Internal {
				evt = log.Error().Err(err)
			}
		}
		remote := ""
		if p, ok := peer.FromContext(ctx); ok {
			remote = p.Addr.String()
		}
		evt.
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("latency", took).
			Str("remote", remote).
			Msg("grpc")

		m.Request("grpc", info.FullMethod, code.String(), took)
		return resp, err
	}
}

// HTTPLogger is the REST counterpart of Logger. It labels metrics with the chi
// route pattern so ids in paths do not explode cardinality.
func HTTPLogger(log zerolog.Logger, m *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			took := time.Since(start)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			st := ww.Status()
			if st == 0 {
				st = http.StatusOK
			}

			evt := log.Info()
			if st >= http.StatusInternalServerError {
				evt = log.Error()
			} else if st >= http.StatusBadRequest {
				evt = log.Warn()
			}
			evt.
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", st).
				Dur("latency", took).
				Str("remote", r.RemoteAddr).
				Msg("http")

			m.Request("http", r.Method+" "+route, strconv.Itoa(st), took)
		})
	}
}
