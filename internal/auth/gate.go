package auth

import (
	"slices"
	"time"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/model"
)

type Verifier interface {
	Verify(raw string, now time.Time) (model.Caller, error)
}

// Gate turns a bearer token into a Caller for one required role set. Ownership of
// individual appointments is checked by the scheduling engine, not here.
type Gate struct {
	tokens Verifier
}

func NewGate(v Verifier) *Gate {
	return &Gate{tokens: v}
}

func (g *Gate) Authorize(raw string, required model.Role, now time.Time) (model.Caller, error) {
	return g.AuthorizeAny(raw, []model.Role{required}, now)
}

func (g *Gate) AuthorizeAny(raw string, allowed []model.Role, now time.Time) (model.Caller, error) {
	if raw == "" {
		return model.Caller{}, apperr.New(apperr.Unauthenticated, "no token")
	}
	caller, err := g.tokens.Verify(raw, now)
	if err != nil {
		if apperr.KindOf(err) != apperr.Unauthenticated {
			err = apperr.Wrap(apperr.Unauthenticated, "bad token", err)
		}
		return model.Caller{}, err
	}
	if !slices.Contains(allowed, caller.Role) {
		return model.Caller{}, apperr.Newf(apperr.Forbidden, "role %s not allowed", caller.Role)
	}
	return caller, nil
}
