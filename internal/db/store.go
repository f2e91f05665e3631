package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/uptrace/bun"

	"legal-ai/internal/models"
)

var (
	ErrNotFound   = errors.New("db: record not found")
	ErrEmailTaken = errors.New("db: email already registered")
)

// Store is the relational persistence for users, documents, conversations
// and messages.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// CreateUser inserts u and fills its id. Duplicate emails fail with
// ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	exists, err := s.db.NewSelect().Model((*User)(nil)).Where("email = ?", u.Email).Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return ErrEmailTaken
	}
	return s.insertUser(ctx, u)
}

// insertUser relies on the unique email column when a concurrent
// registration wins between the check and the insert.
func (s *Store) insertUser(ctx context.Context, u *User) error {
	u.CreatedAt = s.now()
	if _, err := s.db.NewInsert().Model(u).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u := new(User)
	if err := s.db.NewSelect().Model(u).Where("email = ?", email).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// SaveUpload records the bytes of an uploaded PDF. A re-upload of the same
// filename replaces the backup and resets the processing state.
func (s *Store) SaveUpload(ctx context.Context, filename, path string, content []byte) (*Document, error) {
	doc := new(Document)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(doc).Where("nome_arquivo = ?", filename).Limit(1).Scan(ctx)
		switch {
		case err == nil:
			doc.Content = content
			doc.Path = path
			doc.Preprocessed = false
			doc.ChunkCount = 0
			_, err = tx.NewUpdate().Model(doc).
				Column("conteudo_binario", "caminho_arquivo", "preprocessado", "numero_chuncks").
				WherePK().Exec(ctx)
			return err
		case errors.Is(err, sql.ErrNoRows):
			*doc = Document{
				Filename:     filename,
				OriginalName: filename,
				Path:         path,
				Content:      content,
				CreatedAt:    s.now(),
			}
			_, err = tx.NewInsert().Model(doc).Exec(ctx)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save document %s: %w", filename, err)
	}
	return doc, nil
}

func (s *Store) GetDocumentByFilename(ctx context.Context, filename string) (*Document, error) {
	doc := new(Document)
	if err := s.db.NewSelect().Model(doc).Where("nome_arquivo = ?", filename).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return doc, nil
}

func (s *Store) MarkDocumentProcessed(ctx context.Context, id int64, chunks int) error {
	res, err := s.db.NewUpdate().Model((*Document)(nil)).
		Set("preprocessado = ?", true).
		Set("numero_chuncks = ?", chunks).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark document processed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	conv := new(Conversation)
	if err := s.db.NewSelect().Model(conv).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return conv, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *Store) ListConversations(ctx context.Context, userID int64) ([]Conversation, error) {
	convs := make([]Conversation, 0)
	err := s.db.NewSelect().Model(&convs).
		Where("usuario_id = ?", userID).
		OrderExpr("criado_em DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// ListMessages returns every message of a conversation, oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	msgs := make([]Message, 0)
	err := s.db.NewSelect().Model(&msgs).
		Where("conversa_id = ?", conversationID).
		OrderExpr("criado_em ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// RecentMessages returns the last limit messages in chronological order.
func (s *Store) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]Message, error) {
	msgs := make([]Message, 0, limit)
	err := s.db.NewSelect().Model(&msgs).
		Where("conversa_id = ?", conversationID).
		OrderExpr("criado_em DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// SaveExchange stores a question and its answer in one transaction. When
// conv has no id yet it is inserted first, so a new conversation never
// exists without its first exchange.
func (s *Store) SaveExchange(ctx context.Context, conv *Conversation, question, answer string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := s.now()
		if conv.ID == 0 {
			conv.CreatedAt = now
			if _, err := tx.NewInsert().Model(conv).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create conversation: %w", err)
			}
		}
		msgs := []Message{
			{ConversationID: conv.ID, Content: question, Sender: models.SenderUser, CreatedAt: now},
			{ConversationID: conv.ID, Content: answer, Sender: models.SenderAssistant, CreatedAt: now},
		}
		if _, err := tx.NewInsert().Model(&msgs).Exec(ctx); err != nil {
			return fmt.Errorf("failed to store messages: %w", err)
		}
		return nil
	})
}
