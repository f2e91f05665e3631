package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/textsplitter"

	"legal-ai/internal/config"
	"legal-ai/internal/models"
)

var (
	ErrNoText   = errors.New("pdf has no extractable text")
	ErrNoChunks = errors.New("no meaningful text chunks")
)

const (
	defaultChunkSize    = 1500 // characters
	defaultChunkOverlap = 200  // characters
)

// Separators are tried in order: paragraph, line, word, then any character.
var Separators = []string{"\n\n", "\n", " ", ""}

type ParserConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

func New(cfg *config.RAGConfig) *ParserConfig {
	p := &ParserConfig{ChunkSize: defaultChunkSize, ChunkOverlap: defaultChunkOverlap}
	if cfg != nil && cfg.ChunkSize > 0 {
		p.ChunkSize = cfg.ChunkSize
		p.ChunkOverlap = cfg.ChunkOverlap
	}
	return p
}

// ExtractPages returns the plain text of every page. It fails with ErrNoText
// when no page has any non-whitespace text, which is what a scanned PDF
// without an OCR layer looks like.
func (p *ParserConfig) ExtractPages(data []byte) ([]models.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []models.Page
	hasText := false
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) != "" {
			hasText = true
		}
		pages = append(pages, models.Page{Number: i, Text: pageText})
	}
	if !hasText {
		return nil, ErrNoText
	}
	return pages, nil
}

// SplitPages splits each page into overlapping chunks and drops the ones
// that are blank after trimming. Chunk ids are sequential across the
// document.
func (p *ParserConfig) SplitPages(source string, pages []models.Page) ([]models.Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.ChunkSize),
		textsplitter.WithChunkOverlap(p.ChunkOverlap),
		textsplitter.WithSeparators(Separators),
	)

	var chunks []models.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		parts, err := splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}
		for _, part := range parts {
			content := strings.TrimSpace(part)
			if content == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				Content:    content,
				Source:     source,
				PageNumber: page.Number,
				ChunkID:    len(chunks),
			})
		}
	}
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	return chunks, nil
}
