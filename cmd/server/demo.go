package main

import (
	"context"
	"errors"

	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/model"
)

type seeder interface {
	CreateDoctor(ctx context.Context, d *model.Doctor) error
	CreatePatient(ctx context.Context, p *model.Patient) error
	CreateAdmin(ctx context.Context, a *model.Account) error
}

// seedDemo creates the demo accounts. Accounts left from an earlier run are kept.
func seedDemo(ctx context.Context, s seeder, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	errs := []error{
		s.CreateDoctor(ctx, &model.Doctor{ID: "7", Name: "Dr. Grey", Email: "doctor7@clinic.test", Specialty: "General practice", PasswordHash: hash}),
		s.CreatePatient(ctx, &model.Patient{ID: "patient-1", Name: "Ada Lovelace", Email: "ada@clinic.test", PasswordHash: hash}),
		s.CreateAdmin(ctx, &model.Account{ID: "admin", Name: "Front desk", Email: "admin@clinic.test", Role: model.RoleAdmin, PasswordHash: hash}),
	}
	for _, err := range errs {
		if err != nil && !errors.Is(err, model.ErrConflict) {
			return err
		}
	}
	return nil
}
