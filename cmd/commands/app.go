package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"legal-ai/internal/chromemdb"
	"legal-ai/internal/config"
	"legal-ai/internal/db"
	"legal-ai/internal/embedding"
	"legal-ai/internal/helper"
	"legal-ai/internal/llmservice"
	"legal-ai/internal/parser"
	"legal-ai/internal/rag"
	"legal-ai/internal/storage"
)

// app holds the collaborators built once per process.
type app struct {
	cfg   *config.Config
	bun   *bun.DB
	store *db.Store
	index *chromemdb.VectorDBManager
	rag   *rag.RAG
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	helper.SetupLogger(cfg.Log)
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	sqldb, err := db.ConnectDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	return db.NewDB(sqldb, cfg.Database.Debug), nil
}

func openIndex(cfg *config.Config) (*chromemdb.VectorDBManager, error) {
	index, err := chromemdb.NewVectorDBManager(cfg.Vector.Dir, cfg.Vector.Collection, cfg.Vector.Compress)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	if cfg.EmbedLLM.Dimension > 0 {
		index.ExpectDimension(cfg.EmbedLLM.Dimension)
	}
	return index, nil
}

func openFiles(cfg *config.Config) (storage.FileStore, error) {
	switch cfg.Storage.Backend {
	case "minio":
		m := cfg.Storage.Minio
		return storage.NewMinioStore(m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
	default:
		return storage.NewLocalStore(cfg.Storage.DocsDir)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	bdb, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.InitDB(ctx, bdb); err != nil {
		bdb.Close()
		return nil, err
	}
	a, err := wire(cfg, bdb)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	return a, nil
}

func wire(cfg *config.Config, bdb *bun.DB) (*app, error) {
	files, err := openFiles(cfg)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	index, err := openIndex(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, err
	}
	model, err := llmservice.NewModel(&cfg.InferenceLLM)
	if err != nil {
		return nil, err
	}

	store := db.NewStore(bdb)
	pipeline := rag.NewRAG(rag.Deps{
		Documents:     store,
		Conversations: store,
		Files:         files,
		Index:         index,
		Parser:        parser.New(&cfg.RAG),
		Embedder:      embedder,
		LLM:           model,
	}, rag.OptionsFromConfig(cfg))

	log.Info().
		Str("storage", cfg.Storage.Backend).
		Str("vector_dir", cfg.Vector.Dir).
		Str("embed_model", cfg.EmbedLLM.Model).
		Str("llm_model", cfg.InferenceLLM.Model).
		Msg("Application wired")
	return &app{cfg: cfg, bun: bdb, store: store, index: index, rag: pipeline}, nil
}

func (a *app) Close() error {
	return a.bun.Close()
}
