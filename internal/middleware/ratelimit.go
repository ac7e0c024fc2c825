package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"clinic-scheduling-api/internal/rpc"
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
}

// NewRateLimiter starts a sweeper that drops idle clients until ctx is done.
func NewRateLimiter(ctx context.Context, rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
	}
	go rl.sweep(ctx, time.Minute, 3*time.Minute)
	return rl
}

func (rl *RateLimiter) sweep(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			rl.mu.Lock()
			for ip, c := range rl.clients {
				if now.Sub(c.seen) > idle {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{lim: rate.NewLimiter(rl.r, rl.burst)}
		rl.clients[ip] = c
	}
	c.seen = time.Now()
	return c.lim.Allow()
}

// methods that should be rate limited
var limited = map[string]bool{
	rpc.MethodRegister: true,
	rpc.MethodLogin:    true,
}

func RateLimit(rl *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !limited[info.FullMethod] {
			return next(ctx, req)
		}
		if !rl.Allow(clientIP(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}

// ForwardedFor carries the browser's address from the in-process grpc-web bridge.
const ForwardedFor = "x-forwarded-for"

// clientIP trusts ForwardedFor only from loopback peers, i.e. the bridge.
func clientIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	ip := host(p.Addr.String())
	if addr := net.ParseIP(ip); addr == nil || !addr.IsLoopback() {
		return ip
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(ForwardedFor); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return ip
}

// RateLimitHTTP limits every request through it by remote IP.
func RateLimitHTTP(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(host(r.RemoteAddr)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "RateLimited",
					"message": "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func host(addr string) string {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return h
}
