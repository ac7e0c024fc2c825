package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"clinic-scheduling-api/internal/model"
)

// Memory is an in-process Store used when no database is configured. One mutex
// covers conflict check and write, so it gives the same no-double-booking
// guarantee as the database constraints.
type Memory struct {
	policy model.ConflictPolicy

	mu           sync.RWMutex
	appointments map[string]model.Appointment
	doctors      map[string]model.Doctor
	patients     map[string]model.Patient
	admins       map[string]model.Account
}

func NewMemory(policy model.ConflictPolicy) *Memory {
	return &Memory{
		policy:       policy,
		appointments: make(map[string]model.Appointment),
		doctors:      make(map[string]model.Doctor),
		patients:     make(map[string]model.Patient),
		admins:       make(map[string]model.Account),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Save(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.Active() {
		for id, other := range m.appointments {
			if id == a.ID || other.DoctorID != a.DoctorID || !other.Active() {
				continue
			}
			if m.policy.Conflicts(a.ScheduledAt, other.ScheduledAt) {
				return fmt.Errorf("%w: overlaps appointment %s", model.ErrConflict, id)
			}
		}
	}
	m.appointments[a.ID] = *a
	return nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) FindByDoctorAndRange(_ context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		return a.DoctorID == doctorID && inRange(a.ScheduledAt, from, to)
	}), nil
}

func (m *Memory) FindByPatientAndRange(_ context.Context, patientID string, from, to time.Time) ([]model.Appointment, error) {
	return m.filter(func(a model.Appointment) bool {
		return a.PatientID == patientID && inRange(a.ScheduledAt, from, to)
	}), nil
}

func (m *Memory) ExistsConflict(_ context.Context, doctorID string, from, to time.Time, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, a := range m.appointments {
		if id != excludeID && a.DoctorID == doctorID && a.Active() && inRange(a.ScheduledAt, from, to) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) filter(keep func(model.Appointment) bool) []model.Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Appointment
	for _, a := range m.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (m *Memory) Doctor(_ context.Context, id string) (*model.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.doctors[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &d, nil
}

func (m *Memory) Patient(_ context.Context, id string) (*model.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.patients[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) Account(_ context.Context, role model.Role, email string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch role {
	case model.RoleAdmin:
		for _, a := range m.admins {
			if strings.EqualFold(a.Email, email) {
				return &a, nil
			}
		}
	case model.RoleDoctor:
		for _, d := range m.doctors {
			if strings.EqualFold(d.Email, email) {
				return &model.Account{ID: d.ID, Email: d.Email, Name: d.Name, Role: role, PasswordHash: d.PasswordHash}, nil
			}
		}
	case model.RolePatient:
		for _, p := range m.patients {
			if strings.EqualFold(p.Email, email) {
				return &model.Account{ID: p.ID, Email: p.Email, Name: p.Name, Role: role, PasswordHash: p.PasswordHash}, nil
			}
		}
	}
	return nil, model.ErrNotFound
}

func (m *Memory) CreatePatient(_ context.Context, p *model.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patients[p.ID]; ok || emailTaken(m.patients, p.Email, func(x model.Patient) string { return x.Email }) {
		return fmt.Errorf("%w: patient %s", model.ErrConflict, p.Email)
	}
	m.patients[p.ID] = *p
	return nil
}

func (m *Memory) CreateDoctor(_ context.Context, d *model.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.doctors[d.ID]; ok || emailTaken(m.doctors, d.Email, func(x model.Doctor) string { return x.Email }) {
		return fmt.Errorf("%w: doctor %s", model.ErrConflict, d.Email)
	}
	m.doctors[d.ID] = *d
	return nil
}

func (m *Memory) CreateAdmin(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.admins[a.ID]; ok || emailTaken(m.admins, a.Email, func(x model.Account) string { return x.Email }) {
		return fmt.Errorf("%w: admin %s", model.ErrConflict, a.Email)
	}
	admin := *a
	admin.Role = model.RoleAdmin
	m.admins[a.ID] = admin
	return nil
}

func emailTaken[T any](rows map[string]T, email string, emailOf func(T) string) bool {
	for _, r := range rows {
		if strings.EqualFold(emailOf(r), email) {
			return true
		}
	}
	return false
}
