package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned for HTTP 401. The session must be torn down.
	ErrUnauthorized = errors.New("session expired or unauthorized")

	// ErrInUse is returned when the backend refuses a change because other
	// records still reference the target.
	ErrInUse = errors.New("record is in use")

	// ErrNotFound is returned for HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrStaleBranch is returned when the selected branch changed while the
	// request was in flight. The response is discarded.
	ErrStaleBranch = errors.New("response belongs to a previous branch")
)

// Backend error codes that mean "still referenced".
const (
	CodeInUse               = "IN_USE"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap maps the response onto the package sentinels.
func (e *Error) Unwrap() error {
	switch {
	case e.Status == 401:
		return ErrUnauthorized
	case e.Status == 409, e.Code == CodeInUse, e.Code == CodeConstraintViolation:
		return ErrInUse
	case e.Status == 404:
		return ErrNotFound
	}
	return nil
}

// errorBody covers the JSON error shapes the backend produces.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// parseError builds an *Error from a failed response body. JSON bodies
// contribute their message and code, plain text is used verbatim, and an
// empty body falls back to "Error {status}".
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}

	text := strings.TrimSpace(string(body))
	var eb errorBody
	if text != "" && json.Unmarshal(body, &eb) == nil {
		e.Code = eb.Code
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
	} else if text != "" && !strings.HasPrefix(text, "<") {
		e.Message = text
	}

	if e.Message == "" {
		e.Message = fmt.Sprintf("Error %d", status)
	}
	return e
}

// Message returns the text to show a user for err.
func Message(err error) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInUse):
		return "El registro está en uso y no puede modificarse."
	case errors.Is(err, ErrUnauthorized):
		return "La sesión expiró. Inicie sesión nuevamente."
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return err.Error()
}
