package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"clinic-scheduling-api/internal/model"
)

const appointmentCols = `id, doctor_id, patient_id, scheduled_at, status, created_at, updated_at`

// Save upserts by id. The active-slot index (and the overlap exclusion
// constraint when migrated) reject double bookings as model.ErrConflict.
func (s *Store) Save(ctx context.Context, a *model.Appointment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointments (`+appointmentCols+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE
		 SET scheduled_at = EXCLUDED.scheduled_at,
		     status = EXCLUDED.status,
		     updated_at = EXCLUDED.updated_at`,
		a.ID, a.DoctorID, a.PatientID, a.ScheduledAt, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save appointment %s: %w", a.ID, mapErr(err))
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (s *Store) FindByDoctorAndRange(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	return s.list(ctx,
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE doctor_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		 ORDER BY scheduled_at`, doctorID, from, to)
}

func (s *Store) FindByPatientAndRange(ctx context.Context, patientID string, from, to time.Time) ([]model.Appointment, error) {
	return s.list(ctx,
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE patient_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		 ORDER BY scheduled_at`, patientID, from, to)
}

func (s *Store) ExistsConflict(ctx context.Context, doctorID string, from, to time.Time, excludeID string) (bool, error) {
	q := `SELECT EXISTS(
		SELECT 1 FROM appointments
		WHERE doctor_id = $1
		  AND status IN ('BOOKED', 'CONFIRMED')
		  AND scheduled_at >= $2
		  AND scheduled_at < $3`

	args := []any{doctorID, from, to}

	if excludeID != "" {
		q += ` AND id != $4`
		args = append(args, excludeID)
	}
	q += `)`

	var exists bool
	err := s.pool.QueryRow(ctx, q, args...).Scan(&exists)
	return exists, err
}

func (s *Store) list(ctx context.Context, q string, args ...any) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var (
		a      model.Appointment
		status string
	)
	if err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.ScheduledAt, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	a.ScheduledAt = model.Naive(a.ScheduledAt)
	return &a, nil
}
