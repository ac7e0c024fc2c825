// Package apperr defines the failure taxonomy shared by the engine and both transports.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind uint8

const (
	Internal Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	SlotTaken
	InvalidTime
	InvalidTransition
	Validation
)

var kinds = map[Kind]struct {
	name string
	http int
	grpc codes.Code
}{
	Internal:          {"Internal", http.StatusInternalServerError, codes.Internal},
	Unauthenticated:   {"Unauthenticated", http.StatusUnauthorized, codes.Unauthenticated},
	Forbidden:         {"Forbidden", http.StatusForbidden, codes.PermissionDenied},
	NotFound:          {"NotFound", http.StatusNotFound, codes.NotFound},
	SlotTaken:         {"SlotTaken", http.StatusConflict, codes.AlreadyExists},
	InvalidTime:       {"InvalidTime", http.StatusBadRequest, codes.InvalidArgument},
	InvalidTransition: {"InvalidTransition", http.StatusBadRequest, codes.FailedPrecondition},
	Validation:        {"ValidationError", http.StatusBadRequest, codes.InvalidArgument},
}

func (k Kind) String() string { return kinds[k].name }

func (k Kind) HTTPStatus() int { return kinds[k].http }

func (k Kind) GRPCCode() codes.Code { return kinds[k].grpc }

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == Internal {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// GRPCStatus lets status.FromError and the grpc server read the kind directly.
// Internal causes are not sent to clients.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.Kind.GRPCCode(), e.Msg)
}

func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// KindOf returns Internal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
