package models

import "time"

// Wire records for the HTTP API. Field names follow the Portuguese JSON
// contract consumed by the web front end.

type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"nome"`
	CreatedAt time.Time `json:"criado_em"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type DocumentResponse struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"nome_arquivo"`
	OriginalName string    `json:"nome_original"`
	Path         string    `json:"caminho_arquivo"`
	Preprocessed bool      `json:"preprocessado"`
	ChunkCount   int       `json:"numero_chunks"`
	CreatedAt    time.Time `json:"criado_em"`
}

type ProcessResponse struct {
	Message   string `json:"message"`
	Filename  string `json:"filename"`
	NumChunks int    `json:"num_chunks"`
}

type DocumentListResponse struct {
	Documents []string `json:"documentos"`
	Total     int      `json:"total"`
}

type QuestionRequest struct {
	Question       string `json:"pergunta"`
	ConversationID *int64 `json:"conversa_id,omitempty"`
}

type AnswerResponse struct {
	Answer         string   `json:"resposta"`
	Sources        []Source `json:"sources"`
	NumDocs        int      `json:"num_docs"`
	ConversationID int64    `json:"conversa_id"`
}

type ConversationResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"titulo"`
	CreatedAt time.Time `json:"criado_em"`
}

type MessageResponse struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversa_id"`
	Content        string    `json:"conteudo"`
	Sender         string    `json:"remetente"`
	CreatedAt      time.Time `json:"criado_em"`
	ContentHTML    string    `json:"conteudo_html,omitempty"`
}

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"nome,omitempty"`
}
