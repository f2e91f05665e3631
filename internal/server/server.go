// Package server exposes the document and question pipelines over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"legal-ai/internal/auth"
	"legal-ai/internal/db"
	"legal-ai/internal/rag"
)

// Store is the relational data the handlers read directly.
type Store interface {
	CreateUser(ctx context.Context, u *db.User) error
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetConversation(ctx context.Context, id int64) (*db.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]db.Conversation, error)
	ListMessages(ctx context.Context, conversationID int64) ([]db.Message, error)
}

// Pipeline is implemented by *rag.RAG.
type Pipeline interface {
	ValidateUpload(filename string, size int64) error
	Upload(ctx context.Context, filename string, data []byte) (*db.Document, error)
	Process(ctx context.Context, filename string) (*rag.ProcessResult, error)
	ListDocuments(ctx context.Context) ([]string, error)
	Answer(ctx context.Context, userID int64, question string, conversationID *int64) (*rag.Answer, error)
}

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type Config struct {
	Store          Store
	Pipeline       Pipeline
	Tokens         *auth.TokenIssuer
	Limiter        Limiter
	Logger         zerolog.Logger
	CORSOrigins    []string
	MaxUploadBytes int64
}

type Server struct {
	store          Store
	pipeline       Pipeline
	tokens         *auth.TokenIssuer
	limiter        Limiter
	logger         zerolog.Logger
	corsOrigins    map[string]struct{}
	maxUploadBytes int64
	mux            *http.ServeMux
}

func New(cfg Config) (*Server, error) {
	if cfg.Store == nil || cfg.Pipeline == nil {
		return nil, errors.New("server requires a store and a pipeline")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("server requires a token issuer")
	}
	s := &Server{
		store:          cfg.Store,
		pipeline:       cfg.Pipeline,
		tokens:         cfg.Tokens,
		limiter:        cfg.Limiter,
		logger:         cfg.Logger,
		corsOrigins:    make(map[string]struct{}, len(cfg.CORSOrigins)),
		maxUploadBytes: cfg.MaxUploadBytes,
		mux:            http.NewServeMux(),
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = 10 * 1024 * 1024
	}
	for _, o := range cfg.CORSOrigins {
		s.corsOrigins[o] = struct{}{}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.withCORS(s.mux)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	return hlog.NewHandler(s.logger)(h)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /token", s.handleToken)
	s.mux.Handle("GET /users/me", s.authenticated(s.handleMe))

	s.mux.Handle("POST /carregar/{$}", s.authenticated(s.rateLimited(s.handleUpload)))
	s.mux.Handle("POST /processar/{filename}", s.authenticated(s.handleProcess))
	s.mux.Handle("GET /documentos/{$}", s.authenticated(s.handleListDocuments))

	s.mux.Handle("POST /pergunta/{$}", s.authenticated(s.rateLimited(s.handleQuestion)))
	s.mux.Handle("GET /conversas/{$}", s.authenticated(s.handleListConversations))
	s.mux.Handle("GET /conversas/{id}/mensagens/{$}", s.authenticated(s.handleListMessages))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
