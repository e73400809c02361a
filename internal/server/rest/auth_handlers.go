package rest

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/services"
)

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,password,bcryptlen"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required,max=50"`
	LastName        string `json:"lastName" validate:"required,max=50"`
}

func (req *registerRequest) normalize() {
	req.Email = models.NormalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type updatePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,password,bcryptlen"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.normalize()
	if err := s.check(&req, "body"); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.auth.Register(r.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	s.authEvent("register", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User registered successfully", sessionOf(res.Account, res.Tokens))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Email = models.NormalizeEmail(req.Email)
	if err := s.check(&req, "body"); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	s.authEvent("login", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", sessionOf(res.Account, res.Tokens))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.check(&req, "body"); err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	s.authEvent("refresh", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Token refreshed successfully", pair)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())

	fresh, err := s.auth.Me(r.Context(), account.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", userData{User: viewOf(fresh)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())

	err := s.auth.Logout(r.Context(), account.ID)
	s.authEvent("logout", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Logout successful", nil)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	account, _ := AccountFromContext(r.Context())

	var req updatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.check(&req, "body"); err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.auth.UpdatePassword(r.Context(), account.ID, req.CurrentPassword, req.NewPassword)
	s.authEvent("update_password", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password updated successfully", pair)
}
