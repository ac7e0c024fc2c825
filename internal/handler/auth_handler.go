package handler

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/timestamppb"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/rpc"
)

const minPasswordLen = 8

func (h *Handler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, apperr.New(apperr.Validation, "all fields required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.New(apperr.Validation, "invalid email")
	}
	if len(req.Password) < minPasswordLen {
		return nil, apperr.New(apperr.Validation, "password too short")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "internal error", err)
	}

	p := &model.Patient{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
	}
	if err := h.accounts.CreatePatient(ctx, p); err != nil {
		if errors.Is(err, model.ErrConflict) {
			// dup email, but don't reveal that
			return nil, apperr.New(apperr.Validation, "registration failed")
		}
		return nil, apperr.Wrap(apperr.Internal, "internal error", err)
	}

	tok, err := h.tokens.Issue(p.ID, model.RolePatient, h.now())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "internal error", err)
	}
	h.log.Info().Str("patient_id", p.ID).Msg("patient registered")
	return &rpc.RegisterResponse{UserId: p.ID, Token: tok.Raw}, nil
}

// Login checks credentials against the account table of the requested role,
// PATIENT when none is given.
func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperr.New(apperr.Validation, "email and password required")
	}
	role := model.RolePatient
	if req.Role != "" {
		r, err := model.ParseRole(req.Role)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "unknown role")
		}
		role = r
	}

	acc, err := h.accounts.Account(ctx, role, strings.TrimSpace(req.Email))
	switch {
	case errors.Is(err, model.ErrNotFound):
		h.checkPassword(auth.DummyHash(), req.Password)
		h.metrics.Login(role, false)
		return nil, apperr.New(apperr.Unauthenticated, "invalid credentials")
	case err != nil:
		return nil, apperr.Wrap(apperr.Internal, "internal error", err)
	}
	if !h.checkPassword(acc.PasswordHash, req.Password) {
		h.metrics.Login(role, false)
		return nil, apperr.New(apperr.Unauthenticated, "invalid credentials")
	}

	tok, err := h.tokens.Issue(acc.ID, role, h.now())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "internal error", err)
	}
	h.metrics.Login(role, true)
	return &rpc.LoginResponse{
		Token:     tok.Raw,
		UserId:    acc.ID,
		Role:      role.String(),
		ExpiresAt: timestamppb.New(tok.ExpiresAt),
	}, nil
}
