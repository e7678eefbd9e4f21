package proxy

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is an HTTP failure with the message returned to the client as
// {"message": ...}.
type Error struct {
	Status  int
	Message string
	// Err is the underlying cause; it is logged, never sent.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Client-visible messages
const (
	MsgNoAuthorization = "No Authorization header"
	MsgInternal        = "Internal Server Error"
	MsgUnauthorized    = "Unauthorized"
	MsgInvalidBody     = "Invalid request body"
	MsgInvalidAPIKey   = "Invalid API key"
	MsgError           = "Error"
)

func newError(status int, message string, cause error) *Error {
	return &Error{Status: status, Message: message, Err: cause}
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError sends err as {"message": ...}. Anything that is not an *Error
// becomes 500 {"message":"Error"}.
func writeError(w http.ResponseWriter, err error) {
	var perr *Error
	if !errors.As(err, &perr) {
		perr = newError(http.StatusInternalServerError, MsgError, err)
	}
	writeJSON(w, perr.Status, messageBody{Message: perr.Message})
}
