package models

// Page is the plain text of one PDF page, numbered from 1.
type Page struct {
	Number int
	Text   string
}

// Chunk represents a split span of page text with its source metadata
type Chunk struct {
	Content    string
	Source     string
	PageNumber int
	ChunkID    int
}

// ChunkEmbedding is a chunk ready to be written to the vector index.
type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

// Source is the metadata of a retrieved chunk as returned to callers.
type Source struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// RetrievedChunk is one similarity search hit.
type RetrievedChunk struct {
	Source
	Content string
}
