// Package metrics exposes booking and request counters on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic-scheduling-api/internal/model"
)

const namespace = "clinic"

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	reg *prometheus.Registry

	bookings    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	logins      *prometheus.CounterVec
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by result.",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Appointment status changes by target status.",
		}, []string{"status"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by role and result.",
		}, []string{"role", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests by transport, method and outcome.",
		}, []string{"transport", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by transport and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "method"}),
	}
	r.reg.MustRegister(
		r.bookings, r.transitions, r.logins, r.requests, r.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Booking(result string) {
	if r == nil {
		return
	}
	r.bookings.WithLabelValues(result).Inc()
}

func (r *Recorder) Transition(to model.Status) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(string(to)).Inc()
}

func (r *Recorder) Login(role model.Role, ok bool) {
	if r == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	r.logins.WithLabelValues(role.String(), result).Inc()
}

// Request records one finished request. method is the gRPC full method or the
// chi route pattern, never the raw path.
func (r *Recorder) Request(transport, method, code string, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(transport, method, code).Inc()
	r.latency.WithLabelValues(transport, method).Observe(d.Seconds())
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}
