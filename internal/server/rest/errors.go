package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/services"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgInvalidTextRepresentation = "22P02"

var kindStatus = []struct {
	kind   error
	status int
}{
	{common.ErrorValidation, http.StatusBadRequest},
	{common.ErrorUnauthorized, http.StatusUnauthorized},
	{common.ErrorForbidden, http.StatusForbidden},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrorAlreadyExists, http.StatusConflict},
	{common.ErrorInternal, http.StatusInternalServerError},
}

func statusOfKind(kind error) int {
	for _, ks := range kindStatus {
		if errors.Is(kind, ks.kind) {
			return ks.status
		}
	}
	return http.StatusInternalServerError
}

// translateError maps any error reaching a handler onto an HTTP status and
// response body. Unclassified errors become 500 and their text is only shown
// in development.
func translateError(err error, development bool) (int, envelope) {
	var (
		typed    *common.Error
		invalid  validator.ValidationErrors
		syntax   *json.SyntaxError
		typeErr  *json.UnmarshalTypeError
		tooLarge *http.MaxBytesError
		pgErr    *pgconn.PgError
	)

	switch {
	case errors.As(err, &typed):
		code := statusOfKind(typed.Kind)
		msg := typed.Message
		if msg == "" {
			msg = typed.Kind.Error()
		}
		return code, envelope{Status: statusWord(code), Message: msg, Errors: typed.Fields}
	case errors.As(err, &invalid):
		return http.StatusBadRequest, envelope{
			Status:  statusFail,
			Message: "Validation failed",
			Errors:  fieldErrors(invalid, "body"),
		}
	case errors.As(err, &syntax), errors.As(err, &typeErr):
		return failWith(http.StatusBadRequest, "Invalid JSON in request body")
	case errors.As(err, &tooLarge):
		return failWith(http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, common.ErrTokenExpired):
		return failWith(http.StatusUnauthorized, services.MsgTokenExpired)
	case errors.Is(err, common.ErrInvalidToken):
		return failWith(http.StatusUnauthorized, services.MsgInvalidToken)
	case errors.Is(err, common.ErrorAlreadyExists):
		return failWith(http.StatusConflict, "Resource already exists")
	case errors.Is(err, common.ErrorNotFound):
		return failWith(http.StatusNotFound, "Resource not found")
	case errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation:
		return failWith(http.StatusBadRequest, "Invalid input syntax")
	}

	msg := common.GenericInternalMessage
	if development {
		msg = err.Error()
	}
	return failWith(http.StatusInternalServerError, msg)
}

func failWith(code int, msg string) (int, envelope) {
	return code, envelope{Status: statusWord(code), Message: msg}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, body := translateError(err, s.opts.Development)
	if code >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), s.log).Error(r.Context(), "request failed",
			"error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, code, body)
}
