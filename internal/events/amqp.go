// Package events publishes committed appointment changes to a RabbitMQ topic
// exchange. Routing keys are the event types, e.g. appointment.booked.
package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"clinic-scheduling-api/internal/model"
)

const contentType = "application/json"

// Message is the wire form of model.Event.
type Message struct {
	Type                model.EventType `json:"type"`
	AppointmentID       string          `json:"appointmentId"`
	DoctorID            string          `json:"doctorId"`
	PatientID           string          `json:"patientId"`
	ScheduledAt         string          `json:"scheduledAt"`
	Status              string          `json:"status"`
	PreviousScheduledAt string          `json:"previousScheduledAt,omitempty"`
	PreviousStatus      string          `json:"previousStatus,omitempty"`
	ActorRole           string          `json:"actorRole"`
	ActorID             string          `json:"actorId"`
	OccurredAt          time.Time       `json:"occurredAt"`
}

// wallClock keeps scheduled instants zone-free on the wire.
const wallClock = "2006-01-02T15:04"

func Encode(ev model.Event) ([]byte, error) {
	m := Message{
		Type:          ev.Type,
		AppointmentID: ev.Appointment.ID,
		DoctorID:      ev.Appointment.DoctorID,
		PatientID:     ev.Appointment.PatientID,
		ScheduledAt:   ev.Appointment.ScheduledAt.Format(wallClock),
		Status:        string(ev.Appointment.Status),
		ActorRole:     ev.Actor.Role.String(),
		ActorID:       ev.Actor.Subject,
		OccurredAt:    ev.At.UTC(),
	}
	if p := ev.Previous; p != nil {
		if !p.ScheduledAt.Equal(ev.Appointment.ScheduledAt) {
			m.PreviousScheduledAt = p.ScheduledAt.Format(wallClock)
		}
		if p.Status != ev.Appointment.Status {
			m.PreviousStatus = string(p.Status)
		}
	}
	return json.Marshal(m)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// session is one live connection and channel. done is closed once the broker
// closes either of them.
type session struct {
	conn io.Closer
	ch   channel
	done <-chan struct{}
}

func (s *session) close() error {
	err := s.ch.Close()
	if s.conn != nil {
		err = errors.Join(err, s.conn.Close())
	}
	return err
}

type dialFunc func(url, exchange string) (*session, error)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Publisher publishes over one session and redials lazily after the broker
// drops it, at most once per backoff. amqp091 channels are not safe for
// concurrent publishing, hence the mutex.
type Publisher struct {
	url      string
	exchange string
	dial     dialFunc
	backoff  time.Duration

	mu       sync.Mutex
	sess     *session
	nextDial time.Time
	closed   bool
}

// Dial connects and declares the durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange, dial: dialAMQP, backoff: time.Second}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialAMQP(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	done := make(chan struct{})
	go func() {
		select {
		case <-connClosed:
		case <-chClosed:
		}
		close(done)
	}()
	return &session{conn: conn, ch: ch, done: done}, nil
}

// connect requires p.mu.
func (p *Publisher) connect() error {
	s, err := p.dial(p.url, p.exchange)
	if err != nil {
		p.nextDial = time.Now().Add(p.backoff)
		return err
	}
	p.sess = s
	go p.watch(s)
	return nil
}

func (p *Publisher) watch(s *session) {
	<-s.done
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == s {
		p.sess = nil
	}
	// the connection may outlive a closed channel
	_ = s.close()
}

func (p *Publisher) Publish(ctx context.Context, ev model.Event) error {
	body, err := Encode(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	msg := amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.Appointment.ID + ":" + string(ev.Type) + ":" + ev.At.UTC().Format(time.RFC3339Nano),
		Timestamp:    ev.At,
		Type:         string(ev.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.sess == nil {
		if time.Now().Before(p.nextDial) {
			return fmt.Errorf("publish %s: broker unavailable", ev.Type)
		}
		if err := p.connect(); err != nil {
			return fmt.Errorf("publish %s: %w", ev.Type, err)
		}
	}
	if err := p.sess.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, msg); err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			_ = p.sess.close()
			p.sess = nil
		}
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.sess == nil {
		return nil
	}
	err := p.sess.close()
	p.sess = nil
	return err
}
