package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/server/models"
)

const maxBodyBytes = 1 << 20

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// envelope is the body of every API response.
type envelope struct {
	Status     string              `json:"status"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Pagination *pagination         `json:"pagination,omitempty"`
	Errors     []common.FieldError `json:"errors,omitempty"`
}

type pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

func statusWord(code int) string {
	switch {
	case code >= http.StatusInternalServerError:
		return statusError
	case code >= http.StatusBadRequest:
		return statusFail
	default:
		return statusSuccess
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Status: statusSuccess, Message: message, Data: data})
}

func writePage(w http.ResponseWriter, page *models.Page) {
	items := make([]accountView, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, viewOf(a))
	}
	writeJSON(w, http.StatusOK, envelope{
		Status: statusSuccess,
		Data:   items,
		Pagination: &pagination{
			Page:        page.Page,
			Limit:       page.Limit,
			Total:       page.Total,
			TotalPages:  page.TotalPages(),
			HasNextPage: page.HasNext(),
			HasPrevPage: page.HasPrev(),
		},
	})
}

// decodeJSON reads a JSON object from the request body. Unknown fields are
// ignored and an empty body decodes as an empty object. Any other decode
// failure except an oversized body is reported as a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return common.Validation("Content-Type must be application/json")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(out)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooLarge):
		return err
	default:
		// truncated bodies surface as io.ErrUnexpectedEOF, not a SyntaxError
		return common.Validation("Invalid JSON in request body")
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
