package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"

	"legal-ai/internal/apperr"
	"legal-ai/internal/db"
)

const (
	msgBadCredentials = "Não foi possível validar as credenciais"
	msgRateLimited    = "Muitas requisições. Tente novamente em instantes."
)

type authHandler func(http.ResponseWriter, *http.Request, *db.User)

// authenticated resolves the bearer token to a stored user.
func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, r, msgBadCredentials)
			return
		}
		email, err := s.tokens.Parse(token)
		if err != nil {
			hlog.FromRequest(r).Debug().Err(err).Msg("Rejected bearer token")
			writeUnauthorized(w, r, msgBadCredentials)
			return
		}
		user, err := s.store.GetUserByEmail(r.Context(), email)
		if errors.Is(err, db.ErrNotFound) {
			writeUnauthorized(w, r, msgBadCredentials)
			return
		}
		if err != nil {
			writeError(w, r, apperr.Internal("Erro", err))
			return
		}
		next(w, r, user)
	})
}

// rateLimited applies the per-user quota when a limiter is configured.
func (s *Server) rateLimited(next authHandler) authHandler {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request, user *db.User) {
		key := "user:" + strconv.FormatInt(user.ID, 10)
		if !s.limiter.Allow(r.Context(), key) {
			writeError(w, r, apperr.New(apperr.ErrRateLimited, msgRateLimited))
			return
		}
		next(w, r, user)
	}
}

// withCORS allows credentialed requests from the configured origins.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := s.corsOrigins[origin]; ok && origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < len("Bearer ") || !strings.EqualFold(authHeader[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[len("Bearer "):])
	return token, token != ""
}
