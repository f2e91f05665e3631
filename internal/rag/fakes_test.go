package rag

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"legal-ai/internal/chromemdb"
	"legal-ai/internal/db"
	"legal-ai/internal/models"
	"legal-ai/internal/parser"
	"legal-ai/internal/storage"
)

type memStore struct {
	mu     sync.Mutex
	docs   map[string]*db.Document
	convs  map[int64]*db.Conversation
	msgs   []db.Message
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]*db.Document{}, convs: map[int64]*db.Conversation{}}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) SaveUpload(_ context.Context, filename, path string, content []byte) (*db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[filename]
	if !ok {
		doc = &db.Document{ID: s.id(), Filename: filename, OriginalName: filename}
		s.docs[filename] = doc
	}
	doc.Path = path
	doc.Content = content
	doc.Preprocessed = false
	doc.ChunkCount = 0
	cp := *doc
	return &cp, nil
}

func (s *memStore) GetDocumentByFilename(_ context.Context, filename string) (*db.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[filename]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *memStore) MarkDocumentProcessed(_ context.Context, id int64, chunks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID == id {
			doc.Preprocessed = true
			doc.ChunkCount = chunks
			return nil
		}
	}
	return db.ErrNotFound
}

func (s *memStore) GetConversation(_ context.Context, id int64) (*db.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (s *memStore) RecentMessages(_ context.Context, conversationID int64, limit int) ([]db.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []db.Message
	for _, m := range s.msgs {
		if m.ConversationID == conversationID {
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (s *memStore) SaveExchange(_ context.Context, conv *db.Conversation, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv.ID == 0 {
		conv.ID = s.id()
		cp := *conv
		s.convs[conv.ID] = &cp
	}
	s.msgs = append(s.msgs,
		db.Message{ID: s.id(), ConversationID: conv.ID, Content: question, Sender: models.SenderUser},
		db.Message{ID: s.id(), ConversationID: conv.ID, Content: answer, Sender: models.SenderAssistant},
	)
	return nil
}

func (s *memStore) conversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func (s *memStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// fakeEmbedder returns deterministic non-zero vectors of a fixed width.
type fakeEmbedder struct {
	mu         sync.Mutex
	dim        int
	docCalls   int
	queryTexts []string

	// when gate is set, EmbedDocuments signals started and waits for gate
	// to close or its context to end
	gate    chan struct{}
	started chan struct{}
}

func vectorFor(text string, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = 1
	}
	for i, r := range text {
		v[i%dim] += float32(r % 13)
	}
	return v
}

func (e *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.docCalls++
	dim, gate, started := e.dim, e.gate, e.started
	e.mu.Unlock()

	if gate != nil {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t, dim)
	}
	return out, nil
}

func (e *fakeEmbedder) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.docCalls
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queryTexts = append(e.queryTexts, text)
	return vectorFor(text, e.dim), nil
}

// fakeLLM answers reformulation requests and answer requests differently
// and records every prompt.
type fakeLLM struct {
	mu    sync.Mutex
	calls [][]llms.MessageContent
}

const (
	reformulated = "Qual é o prazo de rescisão do contrato?"
	modelAnswer  = "O prazo é de **30 dias** (Fonte: contrato.pdf)."
)

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	content := modelAnswer
	if textOf(messages[0]) == models.ReformulatePrompt {
		content = reformulated
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func textOf(m llms.MessageContent) string {
	if len(m.Parts) == 0 {
		return ""
	}
	if tc, ok := m.Parts[0].(llms.TextContent); ok {
		return tc.Text
	}
	return ""
}

// brokenReset is an index whose reset always fails.
type brokenReset struct {
	VectorIndex
}

var errResetFailed = errors.New("remove index dir: permission denied")

func (brokenReset) ResetIfGeneration(context.Context, uint64) (bool, error) {
	return false, errResetFailed
}

// pagesExtractor skips PDF decoding and returns fixed pages.
type pagesExtractor struct {
	pages []models.Page
	err   error
}

func (p pagesExtractor) ExtractPages([]byte) ([]models.Page, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.pages, nil
}

func (p pagesExtractor) SplitPages(source string, pages []models.Page) ([]models.Chunk, error) {
	return parser.New(nil).SplitPages(source, pages)
}

type harness struct {
	rag      *RAG
	store    *memStore
	files    *storage.LocalStore
	index    *chromemdb.VectorDBManager
	embedder *fakeEmbedder
	llm      *fakeLLM
}

var contractPages = []models.Page{
	{Number: 1, Text: "CLÁUSULA PRIMEIRA. O contrato pode ser rescindido por qualquer das partes."},
	{Number: 2, Text: "CLÁUSULA SEGUNDA. O aviso prévio de rescisão é de 30 dias.\n\nCLÁUSULA TERCEIRA. Foro da comarca de São Paulo."},
}

func newHarness(t *testing.T, dim int, extractor Extractor) *harness {
	t.Helper()
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	index, err := chromemdb.NewVectorDBManager(t.TempDir(), "documentos", false)
	require.NoError(t, err)
	if extractor == nil {
		extractor = pagesExtractor{pages: contractPages}
	}
	h := &harness{
		store:    newMemStore(),
		files:    files,
		index:    index,
		embedder: &fakeEmbedder{dim: dim},
		llm:      &fakeLLM{},
	}
	h.rag = NewRAG(Deps{
		Documents:     h.store,
		Conversations: h.store,
		Files:         files,
		Index:         index,
		Parser:        extractor,
		Embedder:      h.embedder,
		LLM:           h.llm,
	}, Options{})
	return h
}

func (h *harness) ingest(t *testing.T, name string) *ProcessResult {
	t.Helper()
	ctx := context.Background()
	_, err := h.rag.Upload(ctx, name, []byte("%PDF-1.4 "+name))
	require.NoError(t, err)
	res, err := h.rag.Process(ctx, name)
	require.NoError(t, err)
	return res
}
