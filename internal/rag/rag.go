package rag

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/singleflight"

	"legal-ai/internal/config"
	"legal-ai/internal/db"
	"legal-ai/internal/models"
	"legal-ai/internal/storage"
)

// VectorIndex is the subset of the chromem index the pipelines use.
type VectorIndex interface {
	Count(ctx context.Context) (int, error)
	HasSource(source string) bool
	Generation() uint64
	ReplaceSource(ctx context.Context, source string, chunks []models.ChunkEmbedding) error
	Search(ctx context.Context, embedding []float32, k int) ([]models.RetrievedChunk, error)
	ResetIfGeneration(ctx context.Context, gen uint64) (bool, error)
}

// Extractor turns PDF bytes into chunks.
type Extractor interface {
	ExtractPages(data []byte) ([]models.Page, error)
	SplitPages(source string, pages []models.Page) ([]models.Chunk, error)
}

type DocumentStore interface {
	SaveUpload(ctx context.Context, filename, path string, content []byte) (*db.Document, error)
	GetDocumentByFilename(ctx context.Context, filename string) (*db.Document, error)
	MarkDocumentProcessed(ctx context.Context, id int64, chunks int) error
}

type ConversationStore interface {
	GetConversation(ctx context.Context, id int64) (*db.Conversation, error)
	RecentMessages(ctx context.Context, conversationID int64, limit int) ([]db.Message, error)
	SaveExchange(ctx context.Context, conv *db.Conversation, question, answer string) error
}

// Deps are the collaborators of both pipelines, built once at start-up.
type Deps struct {
	Documents     DocumentStore
	Conversations ConversationStore
	Files         storage.FileStore
	Index         VectorIndex
	Parser        Extractor
	Embedder      embeddings.Embedder
	LLM           llms.Model
}

type Options struct {
	TopK           int
	HistoryLimit   int
	MaxUploadBytes int64
	Temperature    float64
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TopK:           cfg.RAG.TopK,
		HistoryLimit:   cfg.RAG.HistoryLimit,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Temperature:    cfg.InferenceLLM.Temperature,
	}
}

type RAG struct {
	Deps
	opts       Options
	processing singleflight.Group
}

func NewRAG(deps Deps, opts Options) *RAG {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 6
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 * 1024 * 1024
	}
	return &RAG{Deps: deps, opts: opts}
}
