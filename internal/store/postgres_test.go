package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/store"
)

func setupPG(t *testing.T) *store.Store {
	t.Helper()
	return store.New(pgPool(t))
}

func pgPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = store.Migrate(ctx, pool, model.IntervalOverlap)
	require.NoError(t, err)
	return pool
}

func seedPG(t *testing.T, st *store.Store) (doctorID, patientID string) {
	t.Helper()
	ctx := context.Background()
	doctorID, patientID = uuid.NewString(), uuid.NewString()
	require.NoError(t, st.CreateDoctor(ctx, &model.Doctor{ID: doctorID, Name: "Dr Test", Email: doctorID + "@clinic.test", PasswordHash: "x"}))
	require.NoError(t, st.CreatePatient(ctx, &model.Patient{ID: patientID, Name: "Pat Test", Email: patientID + "@clinic.test", PasswordHash: "x"}))
	return doctorID, patientID
}

func TestPGSaveAndFind(t *testing.T) {
	st := setupPG(t)
	ctx := context.Background()
	doctorID, patientID := seedPG(t, st)

	at := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)
	a := &model.Appointment{ID: uuid.NewString(), DoctorID: doctorID, PatientID: patientID,
		ScheduledAt: at, Status: model.StatusBooked, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, st.Save(ctx, a))

	got, err := st.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.ScheduledAt.Equal(at))
	assert.Equal(t, model.StatusBooked, got.Status)

	list, err := st.FindByDoctorAndRange(ctx, doctorID, at, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = st.FindByPatientAndRange(ctx, patientID, at.Add(time.Minute), at.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = st.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPGConstraintRejectsOverlap(t *testing.T) {
	st := setupPG(t)
	ctx := context.Background()
	doctorID, patientID := seedPG(t, st)

	at := time.Date(2030, 1, 3, 10, 0, 0, 0, time.UTC)
	mk := func(at time.Time) *model.Appointment {
		return &model.Appointment{ID: uuid.NewString(), DoctorID: doctorID, PatientID: patientID,
			ScheduledAt: at, Status: model.StatusBooked, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	}
	first := mk(at)
	require.NoError(t, st.Save(ctx, first))

	assert.ErrorIs(t, st.Save(ctx, mk(at)), model.ErrConflict)
	assert.ErrorIs(t, st.Save(ctx, mk(at.Add(30*time.Minute))), model.ErrConflict)
	assert.NoError(t, st.Save(ctx, mk(at.Add(time.Hour))))

	taken, err := st.ExistsConflict(ctx, doctorID, at, at.Add(time.Minute), first.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	first.Status = model.StatusCancelled
	require.NoError(t, st.Save(ctx, first))
	assert.NoError(t, st.Save(ctx, mk(at)))
}

func TestPGAccountLookup(t *testing.T) {
	st := setupPG(t)
	ctx := context.Background()
	doctorID, _ := seedPG(t, st)

	acc, err := st.Account(ctx, model.RoleDoctor, doctorID+"@CLINIC.test")
	require.NoError(t, err)
	assert.Equal(t, doctorID, acc.ID)

	_, err = st.Account(ctx, model.RolePatient, doctorID+"@clinic.test")
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = st.CreateDoctor(ctx, &model.Doctor{ID: uuid.NewString(), Name: "Dup", Email: doctorID + "@clinic.test", PasswordHash: "x"})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestPGDoctorDeleteCascades(t *testing.T) {
	pool := pgPool(t)
	st := store.New(pool)
	ctx := context.Background()
	doctorID, patientID := seedPG(t, st)

	a := &model.Appointment{ID: uuid.NewString(), DoctorID: doctorID, PatientID: patientID,
		ScheduledAt: time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC), Status: model.StatusBooked,
		CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, st.Save(ctx, a))

	_, err := pool.Exec(ctx, "DELETE FROM doctors WHERE id = $1", doctorID)
	require.NoError(t, err)

	_, err = st.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
