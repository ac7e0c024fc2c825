// Package scheduling is the appointment engine: booking, rescheduling,
// cancellation, status transitions and availability, with every double-booking
// and ownership rule enforced here rather than in the transports.
package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinic-scheduling-api/internal/model"
)

// Store persists appointments. Save inserts or updates by ID and must return
// model.ErrConflict when its own uniqueness guarantee rejects the row; that
// guarantee, not the engine's pre-check, is what makes booking race free.
type Store interface {
	Save(ctx context.Context, a *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindByDoctorAndRange(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error)
	FindByPatientAndRange(ctx context.Context, patientID string, from, to time.Time) ([]model.Appointment, error)
	// ExistsConflict reports an active appointment of doctorID starting in [from, to),
	// ignoring excludeID.
	ExistsConflict(ctx context.Context, doctorID string, from, to time.Time, excludeID string) (bool, error)
}

// Directory resolves doctors and patients. Both return model.ErrNotFound.
type Directory interface {
	Doctor(ctx context.Context, id string) (*model.Doctor, error)
	Patient(ctx context.Context, id string) (*model.Patient, error)
}

// Locker is an optional short-lived lock around check-then-write.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

type Metrics interface {
	Booking(result string)
	Transition(to model.Status)
}

type Engine struct {
	store   Store
	dir     Directory
	policy  model.ConflictPolicy
	locker  Locker
	lockTTL time.Duration
	events  Publisher
	metrics Metrics
	log     zerolog.Logger
	newID   func() string
}

type Option func(*Engine)

func WithPolicy(p model.ConflictPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithLocker(l Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.events = p }
}

func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(st Store, dir Directory, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		dir:     dir,
		policy:  model.IntervalOverlap,
		lockTTL: 5 * time.Second,
		metrics: noopMetrics{},
		log:     zerolog.Nop(),
		newID:   func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Policy() model.ConflictPolicy { return e.policy }

type noopMetrics struct{}

func (noopMetrics) Booking(string) {}

func (noopMetrics) Transition(model.Status) {}
