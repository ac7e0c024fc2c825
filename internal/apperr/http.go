package apperr

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// Body is the JSON error envelope of the REST API.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteHTTP renders err with the status of its kind. Internal causes are never
// written.
func WriteHTTP(w http.ResponseWriter, err error) {
	WriteHTTPAs(w, err, nil)
}

// WriteHTTPAs is WriteHTTP with per-route status overrides. The body still
// carries the kind.
func WriteHTTPAs(w http.ResponseWriter, err error, statuses map[Kind]int) {
	k := KindOf(err)
	msg := "internal error"
	var e *Error
	if errors.As(err, &e) {
		msg = e.Msg
	}
	code, ok := statuses[k]
	if !ok {
		code = k.HTTPStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Body{Error: k.String(), Message: msg})
}
