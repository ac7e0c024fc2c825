package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		http int
		grpc codes.Code
	}{
		{Unauthenticated, 401, codes.Unauthenticated},
		{Forbidden, 403, codes.PermissionDenied},
		{NotFound, 404, codes.NotFound},
		{SlotTaken, 409, codes.AlreadyExists},
		{InvalidTime, 400, codes.InvalidArgument},
		{InvalidTransition, 400, codes.FailedPrecondition},
		{Validation, 400, codes.InvalidArgument},
		{Internal, 500, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.http, tt.kind.HTTPStatus())
			err := New(tt.kind, "boom")
			assert.Equal(t, tt.grpc, status.Code(err))
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	base := New(SlotTaken, "time slot already booked")
	wrapped := fmt.Errorf("book: %w", base)
	assert.Equal(t, SlotTaken, KindOf(wrapped))
	assert.True(t, Is(wrapped, SlotTaken))
	assert.False(t, Is(nil, Internal))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
}

func TestInternalHidesCause(t *testing.T) {
	err := Wrap(Internal, "internal error", errors.New("connection reset"))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "internal error", status.Convert(err).Message())

	rec := httptest.NewRecorder()
	WriteHTTP(rec, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestWriteHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, Newf(NotFound, "doctor %s not found", "9"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, Body{Error: "NotFound", Message: "doctor 9 not found"}, body)

	rec = httptest.NewRecorder()
	WriteHTTP(rec, errors.New("raw failure"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, Body{Error: "Internal", Message: "internal error"}, body)
}

func TestWriteHTTPAs(t *testing.T) {
	statuses := map[Kind]int{SlotTaken: http.StatusBadRequest}

	rec := httptest.NewRecorder()
	WriteHTTPAs(rec, New(SlotTaken, "slot taken"), statuses)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SlotTaken", body.Error)

	rec = httptest.NewRecorder()
	WriteHTTPAs(rec, New(Forbidden, "not yours"), statuses)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
