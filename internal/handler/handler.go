// Package handler implements rpc.ScheduleServiceServer on top of the scheduling
// engine. The REST API calls the same methods, so both transports share one
// request path.
package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/metrics"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/rpc"
	"clinic-scheduling-api/internal/scheduling"
)

// Accounts is the credential side of the directory.
type Accounts interface {
	Account(ctx context.Context, role model.Role, email string) (*model.Account, error)
	CreatePatient(ctx context.Context, p *model.Patient) error
}

type Handler struct {
	engine   *scheduling.Engine
	accounts Accounts
	tokens   *auth.Authority
	metrics  *metrics.Recorder
	log      zerolog.Logger
	now      func() time.Time

	// checkPassword is auth.CheckPassword outside tests.
	checkPassword func(hash, pw string) bool
}

var _ rpc.ScheduleServiceServer = (*Handler)(nil)

type Option func(*Handler)

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(h *Handler) { h.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

func New(engine *scheduling.Engine, accounts Accounts, tokens *auth.Authority, opts ...Option) *Handler {
	h := &Handler{
		engine:   engine,
		accounts: accounts,
		tokens:   tokens,
		log:      zerolog.Nop(),
		now:      time.Now,

		checkPassword: auth.CheckPassword,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handler) Now() time.Time { return h.now() }
