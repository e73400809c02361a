package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/userhub/internal/client/models"
	"github.com/dmitrijs2005/userhub/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx response decoded from the server envelope. Message
// is safe to show to the user: 5xx responses always carry the generic text.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Fields     []models.FieldError
}

func newAPIError(code int, env *envelope) *APIError {
	e := &APIError{StatusCode: code}
	if env != nil {
		e.Status = env.Status
		e.Message = env.Message
		e.Fields = env.Errors
	}
	switch {
	case code >= http.StatusInternalServerError:
		e.Message = common.GenericInternalMessage
	case e.Message == "":
		e.Message = http.StatusText(code)
	}
	return e
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	msg := e.Message
	for _, f := range e.Fields {
		msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
	}
	return msg
}

// Is reports 401 responses as ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
