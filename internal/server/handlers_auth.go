package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"legal-ai/internal/apperr"
	"legal-ai/internal/auth"
	"legal-ai/internal/db"
	"legal-ai/internal/models"
)

const (
	msgEmailTaken       = "Email já cadastrado"
	msgWrongCredentials = "Email ou senha incorretos"
	msgInvalidBody      = "Corpo da requisição inválido"
	msgMissingFields    = "Email e senha são obrigatórios"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apperr.Wrap(apperr.ErrInvalidInput, msgInvalidBody, err))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, r, apperr.New(apperr.ErrInvalidInput, msgMissingFields))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, apperr.Internal("Erro", err))
		return
	}
	user := &db.User{Email: req.Email, PasswordHash: hash, Name: req.Name}
	err = s.store.CreateUser(r.Context(), user)
	if errors.Is(err, db.ErrEmailTaken) {
		writeError(w, r, apperr.New(apperr.ErrConflict, msgEmailTaken))
		return
	}
	if err != nil {
		writeError(w, r, apperr.Internal("Erro", err))
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// handleToken is the OAuth2 password flow: form fields username and password.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, apperr.Wrap(apperr.ErrInvalidInput, msgInvalidBody, err))
		return
	}
	email := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		writeError(w, r, apperr.Internal("Erro", err))
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		writeUnauthorized(w, r, msgWrongCredentials)
		return
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		writeError(w, r, apperr.Internal("Erro", err))
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, user *db.User) {
	writeJSON(w, http.StatusOK, userResponse(user))
}

func userResponse(u *db.User) models.UserResponse {
	return models.UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}
