package db

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:usuarios,alias:u"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Email         string    `bun:"email,notnull,unique"`
	PasswordHash  string    `bun:"senha_hash,notnull"`
	Name          *string   `bun:"nome"`
	CreatedAt     time.Time `bun:"criado_em,notnull"`
}

type Document struct {
	bun.BaseModel `bun:"table:documentos,alias:d"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Filename      string `bun:"nome_arquivo,notnull,unique"`
	OriginalName  string `bun:"nome_original,notnull"`
	Path          string `bun:"caminho_arquivo,notnull"`
	Content       []byte `bun:"conteudo_binario"`
	Preprocessed  bool   `bun:"preprocessado,notnull,default:false"`
	// column name kept from the existing schema
	ChunkCount int       `bun:"numero_chuncks,notnull,default:0"`
	CreatedAt  time.Time `bun:"criado_em,notnull"`
}

type Conversation struct {
	bun.BaseModel `bun:"table:conversas,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Title         string    `bun:"titulo,notnull"`
	UserID        int64     `bun:"usuario_id"`
	CreatedAt     time.Time `bun:"criado_em,notnull"`
}

type Message struct {
	bun.BaseModel  `bun:"table:mensagens,alias:m"`
	ID             int64     `bun:"id,pk,autoincrement"`
	ConversationID int64     `bun:"conversa_id,notnull"`
	Content        string    `bun:"conteudo,notnull"`
	Sender         string    `bun:"remetente,notnull"`
	CreatedAt      time.Time `bun:"criado_em,notnull"`
}
