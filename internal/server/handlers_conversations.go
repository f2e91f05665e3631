package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"legal-ai/internal/apperr"
	"legal-ai/internal/db"
	"legal-ai/internal/models"
	"legal-ai/internal/render"
)

const msgConversationHidden = "Conversa não encontrada ou acesso negado"

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request, user *db.User) {
	var req models.QuestionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, apperr.Wrap(apperr.ErrInvalidInput, msgInvalidBody, err))
		return
	}
	ans, err := s.pipeline.Answer(r.Context(), user.ID, req.Question, req.ConversationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sources := ans.Sources
	if sources == nil {
		sources = []models.Source{}
	}
	writeJSON(w, http.StatusOK, models.AnswerResponse{
		Answer:         ans.Text,
		Sources:        sources,
		NumDocs:        len(sources),
		ConversationID: ans.ConversationID,
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request, user *db.User) {
	convs, err := s.store.ListConversations(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, apperr.Internal("Erro", err))
		return
	}
	out := make([]models.ConversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, models.ConversationResponse{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleListMessages hides other users' conversations behind the same 404
// as missing ones. With ?formato=html assistant answers are also rendered.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, user *db.User) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, apperr.New(apperr.ErrNotFound, msgConversationHidden))
		return
	}
	conv, err := s.store.GetConversation(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) || (err == nil && conv.UserID != user.ID) {
		writeError(w, r, apperr.New(apperr.ErrNotFound, msgConversationHidden))
		return
	}
	if err != nil {
		writeError(w, r, apperr.Internal("Erro", err))
		return
	}

	msgs, err := s.store.ListMessages(r.Context(), conv.ID)
	if err != nil {
		writeError(w, r, apperr.Internal("Erro", err))
		return
	}
	asHTML := r.URL.Query().Get("formato") == "html"
	out := make([]models.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp := models.MessageResponse{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Content:        m.Content,
			Sender:         m.Sender,
			CreatedAt:      m.CreatedAt,
		}
		if asHTML && m.Sender == models.SenderAssistant {
			if resp.ContentHTML, err = render.MarkdownToHTML(m.Content); err != nil {
				writeError(w, r, apperr.Internal("Erro", err))
				return
			}
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}
