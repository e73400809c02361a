package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		dev     bool
		code    int
		status  string
		message string
	}{
		{"typed validation", common.Validation("Bad thing"), false, http.StatusBadRequest, "fail", "Bad thing"},
		{"typed unauthorized", common.Unauthorized("Nope"), false, http.StatusUnauthorized, "fail", "Nope"},
		{"typed forbidden", common.Forbidden("Denied"), false, http.StatusForbidden, "fail", "Denied"},
		{"typed not found", common.NotFound("Missing"), false, http.StatusNotFound, "fail", "Missing"},
		{"typed conflict", common.Conflict("Taken"), false, http.StatusConflict, "fail", "Taken"},
		{"typed internal", common.Internal("Broken"), false, http.StatusInternalServerError, "error", "Broken"},
		{"wrapped typed", fmt.Errorf("ctx: %w", common.NotFound("Missing")), false, http.StatusNotFound, "fail", "Missing"},
		{"json syntax", &json.SyntaxError{}, false, http.StatusBadRequest, "fail", "Invalid JSON in request body"},
		{"token expired", common.ErrTokenExpired, false, http.StatusUnauthorized, "fail", "Token has expired"},
		{"invalid token", fmt.Errorf("parse: %w", common.ErrInvalidToken), false, http.StatusUnauthorized, "fail", "Invalid token"},
		{"store unique", fmt.Errorf("%w: dup", common.ErrorAlreadyExists), false, http.StatusConflict, "fail", "Resource already exists"},
		{"store not found", common.ErrorNotFound, false, http.StatusNotFound, "fail", "Resource not found"},
		{"pg invalid text", fmt.Errorf("db error: %w", &pgconn.PgError{Code: "22P02"}), false, http.StatusBadRequest, "fail", "Invalid input syntax"},
		{"unknown prod", errors.New("secret detail"), false, http.StatusInternalServerError, "error", common.GenericInternalMessage},
		{"unknown dev", errors.New("secret detail"), true, http.StatusInternalServerError, "error", "secret detail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := translateError(tt.err, tt.dev)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestTranslateError_FieldsPassThrough(t *testing.T) {
	fields := []common.FieldError{{Field: "email", Message: "Email is required", Location: "body"}}
	code, body := translateError(common.ValidationFields("Validation failed", fields), false)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, fields, body.Errors)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("Bearer"))
	assert.Empty(t, bearerToken(""))
}
