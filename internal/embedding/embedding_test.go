package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-ai/internal/config"
	"legal-ai/internal/models"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[:min(len(texts), len(s.vectors))], nil
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return s.vectors[0], s.err
}

func TestGenerateEmbeddingPairsVectorsWithChunks(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float32{{1, 0}, {0, 1}}}
	chunks := []models.Chunk{
		{Content: "um", Source: "a.pdf", PageNumber: 1, ChunkID: 0},
		{Content: "dois", Source: "a.pdf", PageNumber: 2, ChunkID: 1},
	}

	out, err := GenerateEmbedding(context.Background(), stub, chunks)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "dois", out[1].Content)
	assert.Equal(t, []float32{0, 1}, out[1].Embedding)
}

func TestGenerateEmbeddingCountMismatch(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float32{{1, 0}}}
	_, err := GenerateEmbedding(context.Background(), stub, []models.Chunk{{Content: "a"}, {Content: "b"}})
	assert.Error(t, err)
}

func TestGenerateEmbeddingError(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := GenerateEmbedding(context.Background(), &stubEmbedder{err: boom}, []models.Chunk{{Content: "a"}})
	assert.ErrorIs(t, err, boom)
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)
}

func TestNewEmbedderOpenAI(t *testing.T) {
	e, err := NewEmbedder(&config.LLMConfig{Provider: "openai", Key: "Bearer sk-test", BaseURL: "http://localhost:1/v1", Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.NotNil(t, e)
}
