package store

import (
	"context"
	"fmt"

	"clinic-scheduling-api/internal/model"
)

func (s *Store) Doctor(ctx context.Context, id string) (*model.Doctor, error) {
	d := &model.Doctor{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, specialty, password_hash FROM doctors WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Email, &d.Specialty, &d.PasswordHash)
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

func (s *Store) Patient(ctx context.Context, id string) (*model.Patient, error) {
	p := &model.Patient{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, password_hash FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.PasswordHash)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

var accountTables = map[model.Role]string{
	model.RoleAdmin:   "admins",
	model.RoleDoctor:  "doctors",
	model.RolePatient: "patients",
}

// Account looks up credentials by email within one role's table.
func (s *Store) Account(ctx context.Context, role model.Role, email string) (*model.Account, error) {
	table, ok := accountTables[role]
	if !ok {
		return nil, model.ErrNotFound
	}
	a := &model.Account{Role: role}
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, email, name, password_hash FROM %s WHERE lower(email) = lower($1)`, table), email,
	).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (s *Store) CreatePatient(ctx context.Context, p *model.Patient) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO patients (id, name, email, phone, password_hash) VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.Name, p.Email, p.Phone, p.PasswordHash,
	)
	return mapErr(err)
}

func (s *Store) CreateDoctor(ctx context.Context, d *model.Doctor) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO doctors (id, name, email, specialty, password_hash) VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.Name, d.Email, d.Specialty, d.PasswordHash,
	)
	return mapErr(err)
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO admins (id, name, email, password_hash) VALUES ($1,$2,$3,$4)`,
		a.ID, a.Name, a.Email, a.PasswordHash,
	)
	return mapErr(err)
}
