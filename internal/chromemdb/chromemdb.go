package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"legal-ai/internal/models"
)

const (
	collectionsDir = "collections"
	manifestFile   = "manifest.yaml"

	metaSource = "source"
	metaPage   = "page"
	metaChunk  = "chunk"
)

// ErrDimensionMismatch matches every DimensionMismatchError.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DimensionMismatchError reports vectors whose width differs from the one the
// index was built with.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: index has %d, got %d", e.Expected, e.Got)
}

func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// manifest is persisted next to the chromem files. It records the vector
// width, the reset generation and which chunk ids belong to each source
// filename, since chromem itself cannot list documents.
type manifest struct {
	Generation uint64              `yaml:"generation"`
	Dimension  int                 `yaml:"dimension"`
	Sources    map[string][]string `yaml:"sources"`
}

// VectorDBManager wraps a persistent chromem collection. Writers (add,
// reset) are exclusive; readers share the lock.
type VectorDBManager struct {
	mu sync.RWMutex

	dir            string
	collectionName string
	compress       bool
	expectedDim    int

	db         *chromem.DB
	collection *chromem.Collection
	manifest   manifest
}

// NewVectorDBManager opens (or creates) the index stored under dir.
func NewVectorDBManager(dir, collectionName string, compress bool) (*VectorDBManager, error) {
	m := &VectorDBManager{
		dir:            dir,
		collectionName: collectionName,
		compress:       compress,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// ExpectDimension declares the width of the configured embedding model.
// A persisted index of another width then reports a dimension mismatch on
// Count, before any vector is compared.
func (m *VectorDBManager) ExpectDimension(dim int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedDim = dim
}

func (m *VectorDBManager) load() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(filepath.Join(m.dir, collectionsDir), m.compress)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	c, err := db.GetOrCreateCollection(m.collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	mf, err := readManifest(filepath.Join(m.dir, manifestFile))
	if err != nil {
		return err
	}
	m.db = db
	m.collection = c
	m.manifest = mf
	return nil
}

func readManifest(path string) (manifest, error) {
	mf := manifest{Sources: map[string][]string{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return mf, nil
	}
	if err != nil {
		return mf, fmt.Errorf("failed to read index manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return mf, fmt.Errorf("failed to parse index manifest: %w", err)
	}
	if mf.Sources == nil {
		mf.Sources = map[string][]string{}
	}
	return mf, nil
}

func (m *VectorDBManager) saveManifest() error {
	data, err := yaml.Marshal(m.manifest)
	if err != nil {
		return fmt.Errorf("failed to encode index manifest: %w", err)
	}
	path := filepath.Join(m.dir, manifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index manifest: %w", err)
	}
	return os.Rename(tmp, path)
}

// Count returns the number of vectors in the index.
func (m *VectorDBManager) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := m.collection.Count()
	if n > 0 && m.expectedDim > 0 && m.manifest.Dimension > 0 && m.manifest.Dimension != m.expectedDim {
		return 0, &DimensionMismatchError{Expected: m.manifest.Dimension, Got: m.expectedDim}
	}
	return n, nil
}

// HasSource reports whether chunks of the given source filename are indexed.
func (m *VectorDBManager) HasSource(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.manifest.Sources[source]) > 0
}

// Generation increases on every reset.
func (m *VectorDBManager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.manifest.Generation
}

func chunkDocID(source string, chunkID int) string {
	return source + "#" + strconv.Itoa(chunkID)
}

// ReplaceSource writes the embedded chunks of one source file, removing any
// chunks previously stored for it. All embeddings must share the width the
// index was built with; an empty index adopts the width of the batch.
func (m *VectorDBManager) ReplaceSource(ctx context.Context, source string, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return errors.New("no chunks to add")
	}
	dim := len(chunks[0].Embedding)
	for _, c := range chunks {
		if len(c.Embedding) != dim {
			return &DimensionMismatchError{Expected: dim, Got: len(c.Embedding)}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collection.Count() > 0 && m.manifest.Dimension > 0 && m.manifest.Dimension != dim {
		return &DimensionMismatchError{Expected: m.manifest.Dimension, Got: dim}
	}

	if old := m.manifest.Sources[source]; len(old) > 0 {
		if err := m.collection.Delete(ctx, nil, nil, old...); err != nil {
			return fmt.Errorf("failed to delete previous chunks of %s: %w", source, err)
		}
		delete(m.manifest.Sources, source)
		if err := m.saveManifest(); err != nil {
			return err
		}
	}

	docs := make([]chromem.Document, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		id := chunkDocID(source, c.ChunkID)
		ids = append(ids, id)
		docs = append(docs, chromem.Document{
			ID:      id,
			Content: c.Content,
			Metadata: map[string]string{
				metaSource: source,
				metaPage:   strconv.Itoa(c.PageNumber),
				metaChunk:  strconv.Itoa(c.ChunkID),
			},
			Embedding: c.Embedding,
		})
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	m.manifest.Dimension = dim
	m.manifest.Sources[source] = ids
	return m.saveManifest()
}

// Search returns the k nearest chunks to embedding, most similar first.
func (m *VectorDBManager) Search(ctx context.Context, embedding []float32, k int) ([]models.RetrievedChunk, error) {
	if len(embedding) == 0 {
		return nil, errors.New("query embedding is empty")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.collection.Count()
	if n == 0 {
		return nil, nil
	}
	if m.manifest.Dimension > 0 && len(embedding) != m.manifest.Dimension {
		return nil, &DimensionMismatchError{Expected: m.manifest.Dimension, Got: len(embedding)}
	}
	if k > n {
		k = n
	}
	results, err := m.collection.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]models.RetrievedChunk, 0, len(results))
	for _, r := range results {
		page, _ := strconv.Atoi(r.Metadata[metaPage])
		out = append(out, models.RetrievedChunk{
			Source:  models.Source{Source: r.Metadata[metaSource], Page: page},
			Content: r.Content,
		})
	}
	return out, nil
}

// Reset deletes the whole on-disk index and recreates an empty one in the
// same place.
func (m *VectorDBManager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset()
}

// ResetIfGeneration resets only if no other reset happened since gen was
// observed. It reports whether this call performed the reset.
func (m *VectorDBManager) ResetIfGeneration(ctx context.Context, gen uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.manifest.Generation != gen {
		return false, nil
	}
	return true, m.reset()
}

func (m *VectorDBManager) reset() error {
	next := m.manifest.Generation + 1
	log.Warn().Str("dir", m.dir).Uint64("generation", next).Msg("Resetting vector index")

	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to remove index dir: %w", err)
	}
	if err := m.load(); err != nil {
		return err
	}
	m.manifest = manifest{Generation: next, Sources: map[string][]string{}}
	return m.saveManifest()
}
