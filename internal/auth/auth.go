package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"clinic-scheduling-api/internal/apperr"
	"clinic-scheduling-api/internal/model"
)

// DefaultTTL keeps the unrevocable window short.
const DefaultTTL = 15 * time.Minute

const minKeyLen = 32

var ErrBadToken = errors.New("invalid token")

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// DummyHash is a valid bcrypt hash of no real password. Checking it for unknown
// accounts keeps their login failures as slow as wrong passwords.
var DummyHash = sync.OnceValue(func() string {
	b, err := bcrypt.GenerateFromPassword([]byte("no account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(b)
})

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	Raw       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Authority issues and verifies HS256 access tokens. It holds no state besides
// the key, so one instance is shared by every request.
type Authority struct {
	key []byte
	ttl time.Duration
}

// NewAuthority derives a 256-bit key from secrets shorter than 32 bytes.
func NewAuthority(secret string, ttl time.Duration) *Authority {
	key := []byte(secret)
	if len(key) < minKeyLen {
		sum := sha256.Sum256(key)
		key = sum[:]
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Authority{key: key, ttl: ttl}
}

func (a *Authority) TTL() time.Duration { return a.ttl }

func (a *Authority) Issue(subject string, role model.Role, now time.Time) (Token, error) {
	if subject == "" || !role.Valid() {
		return Token{}, fmt.Errorf("issue token: subject and role required")
	}
	c := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.key)
	if err != nil {
		return Token{}, err
	}
	return Token{Raw: raw, IssuedAt: c.IssuedAt.Time, ExpiresAt: c.ExpiresAt.Time}, nil
}

// Verify checks signature, expiry (exp must be after now) and issue time (iat must
// not be after now). Every failure is an Unauthenticated *apperr.Error.
func (a *Authority) Verify(raw string, now time.Time) (model.Caller, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return model.Caller{}, invalid(err)
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return model.Caller{}, invalid(ErrBadToken)
	}
	if c.IssuedAt == nil {
		return model.Caller{}, invalid(jwt.ErrTokenRequiredClaimMissing)
	}
	role, err := model.ParseRole(c.Role)
	if err != nil || c.Subject == "" {
		return model.Caller{}, invalid(ErrBadToken)
	}
	return model.Caller{Role: role, Subject: c.Subject}, nil
}

func invalid(err error) error {
	msg := "invalid token"
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		msg = "token expired"
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		msg = "token issued in the future"
	case errors.Is(err, jwt.ErrTokenMalformed):
		msg = "malformed token"
	}
	return apperr.Wrap(apperr.Unauthenticated, msg, err)
}
