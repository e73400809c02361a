package rest

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type profileRequest struct {
	FirstName *string `json:"firstName" validate:"omitnil,min=1,max=50"`
	LastName  *string `json:"lastName" validate:"omitnil,min=1,max=50"`
	Avatar    *string `json:"avatar" validate:"omitnil,avatar"`
}

type adminUpdateRequest struct {
	FirstName       *string `json:"firstName" validate:"omitnil,min=1,max=50"`
	LastName        *string `json:"lastName" validate:"omitnil,min=1,max=50"`
	Role            *string `json:"role" validate:"omitnil,oneof=user admin moderator"`
	IsActive        *bool   `json:"isActive"`
	IsEmailVerified *bool   `json:"isEmailVerified"`
}

type avatarRequest struct {
	ContentType string `json:"contentType" validate:"required"`
}

type listParams struct {
	Page      int    `json:"page" validate:"min=1"`
	Limit     int    `json:"limit" validate:"min=1,max=100"`
	SortBy    string `json:"sortBy" validate:"oneof=createdAt email firstName lastName"`
	SortOrder string `json:"sortOrder" validate:"oneof=asc desc"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin moderator"`
	IsActive  string `json:"isActive" validate:"omitempty,oneof=true false"`
	Search    string `json:"search" validate:"max=100"`
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// parseListParams reads list options from the query string, applying
// defaults for absent values.
func parseListParams(q url.Values) (listParams, []common.FieldError) {
	p := listParams{
		Page:      models.DefaultPage,
		Limit:     models.DefaultLimit,
		SortBy:    models.SortCreatedAt,
		SortOrder: "desc",
		Role:      q.Get("role"),
		IsActive:  q.Get("isActive"),
		Search:    strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("sortBy"); v != "" {
		p.SortBy = v
	}
	if v := q.Get("sortOrder"); v != "" {
		p.SortOrder = v
	}

	var bad []common.FieldError
	for name, dst := range map[string]*int{"page": &p.Page, "limit": &p.Limit} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			bad = append(bad, common.FieldError{Field: name, Message: name + " must be a number", Location: "query"})
			continue
		}
		*dst = n
	}
	return p, bad
}

func (p listParams) query() models.ListQuery {
	q := models.ListQuery{
		Page:     p.Page,
		Limit:    p.Limit,
		SortBy:   p.SortBy,
		SortDesc: p.SortOrder == "desc",
		Search:   p.Search,
	}
	if p.Role != "" {
		role := models.Role(p.Role)
		q.Role = &role
	}
	if p.IsActive != "" {
		active := p.IsActive == "true"
		q.IsActive = &active
	}
	return q
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.FirstName, req.LastName, req.Avatar = trimPtr(req.FirstName), trimPtr(req.LastName), trimPtr(req.Avatar)
	if err := s.check(&req, "body"); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.users.UpdateProfile(r.Context(), account.ID, models.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Profile updated successfully", userData{User: viewOf(updated)})
}

func (s *Server) handleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())

	var req avatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.check(&req, "body"); err != nil {
		s.writeError(w, r, err)
		return
	}

	upload, err := s.users.AvatarUploadURL(r.Context(), account.ID, req.ContentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", upload)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	params, bad := parseListParams(r.URL.Query())
	if len(bad) > 0 {
		s.writeError(w, r, common.ValidationFields("Validation failed", bad))
		return
	}
	if err := s.check(&params, "query"); err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.users.List(r.Context(), params.query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writePage(w, page)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	account, err := s.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", userData{User: viewOf(account)})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req adminUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.FirstName, req.LastName = trimPtr(req.FirstName), trimPtr(req.LastName)
	if err := s.check(&req, "body"); err != nil {
		s.writeError(w, r, err)
		return
	}

	u := models.AdminUpdate{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		IsActive:        req.IsActive,
		IsEmailVerified: req.IsEmailVerified,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		u.Role = &role
	}

	account, err := s.users.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User updated successfully", userData{User: viewOf(account)})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := AccountFromContext(r.Context())

	if err := s.users.Delete(r.Context(), actor.ID, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	account, err := s.users.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User deactivated successfully", userData{User: viewOf(account)})
}

func (s *Server) handleActivateUser(w http.ResponseWriter, r *http.Request) {
	account, err := s.users.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User activated successfully", userData{User: viewOf(account)})
}
