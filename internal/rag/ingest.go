package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"legal-ai/internal/apperr"
	"legal-ai/internal/db"
	"legal-ai/internal/embedding"
	"legal-ai/internal/parser"
	"legal-ai/internal/storage"
)

type ProcessResult struct {
	Message  string
	Filename string
	Chunks   int
	Cached   bool
}

// ValidateUpload checks an upload before anything is written.
func (r *RAG) ValidateUpload(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" || storage.SafeFilename(filename) == "" {
		return apperr.New(apperr.ErrInvalidInput, msgNoFile)
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return apperr.New(apperr.ErrInvalidInput, msgOnlyPDF)
	}
	if size > r.opts.MaxUploadBytes {
		return apperr.New(apperr.ErrInvalidInput, fmt.Sprintf(msgTooLarge, r.opts.MaxUploadBytes>>20))
	}
	return nil
}

// Upload stores a PDF in the content store and keeps a copy of its bytes in
// the document record. Uploading a known filename again resets its
// processing state.
func (r *RAG) Upload(ctx context.Context, filename string, data []byte) (*db.Document, error) {
	if err := r.ValidateUpload(filename, int64(len(data))); err != nil {
		return nil, err
	}
	name := storage.SafeFilename(filename)

	path, err := r.Files.Save(ctx, name, data)
	if err != nil {
		return nil, apperr.Internal(msgSaveFailed, err)
	}
	doc, err := r.Documents.SaveUpload(ctx, name, path, data)
	if err != nil {
		return nil, apperr.Internal(msgSaveFailed, err)
	}
	log.Ctx(ctx).Info().Str("filename", name).Int("bytes", len(data)).Msg("Document uploaded")
	return doc, nil
}

// ListDocuments returns the PDF files present in the content store.
func (r *RAG) ListDocuments(ctx context.Context) ([]string, error) {
	names, err := r.Files.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Erro", err)
	}
	pdfs := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasSuffix(strings.ToLower(n), ".pdf") {
			pdfs = append(pdfs, n)
		}
	}
	sort.Strings(pdfs)
	return pdfs, nil
}

// Process ingests a previously uploaded document. Concurrent calls for the
// same filename share one run, detached from the cancellation of whichever
// caller started it.
func (r *RAG) Process(ctx context.Context, filename string) (*ProcessResult, error) {
	v, err, _ := r.processing.Do(filename, func() (any, error) {
		return r.process(context.WithoutCancel(ctx), filename)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProcessResult), nil
}

func (r *RAG) process(ctx context.Context, filename string) (*ProcessResult, error) {
	logger := log.Ctx(ctx).With().Str("filename", filename).Logger()

	doc, err := r.Documents.GetDocumentByFilename(ctx, filename)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, msgDocumentUnknown)
	}
	if err != nil {
		return nil, apperr.Internal(msgProcessFailed, err)
	}

	indexed := false
	if doc.Preprocessed {
		if indexed, err = r.stillIndexed(ctx, doc); err != nil {
			return nil, apperr.Internal(msgIndexLoadFailed, err)
		}
	}
	if indexed {
		logger.Debug().Int("chunks", doc.ChunkCount).Msg("Document already processed")
		return &ProcessResult{Message: msgAlreadyProcessed, Filename: filename, Chunks: doc.ChunkCount, Cached: true}, nil
	}

	data, err := r.restoreIfMissing(ctx, doc)
	if err != nil {
		return nil, err
	}

	pages, err := r.Parser.ExtractPages(data)
	if errors.Is(err, parser.ErrNoText) {
		return nil, apperr.Wrap(apperr.ErrUnprocessable, msgNoText, err)
	}
	if err != nil {
		return nil, apperr.Internal(msgProcessFailed, err)
	}
	chunks, err := r.Parser.SplitPages(doc.Filename, pages)
	if errors.Is(err, parser.ErrNoChunks) {
		return nil, apperr.Wrap(apperr.ErrUnprocessable, msgNoChunks, err)
	}
	if err != nil {
		return nil, apperr.Internal(msgProcessFailed, err)
	}

	embedded, err := embedding.GenerateEmbedding(ctx, r.Embedder, chunks)
	if err != nil {
		return nil, apperr.Internal(msgProcessFailed, err)
	}

	gen := r.Index.Generation()
	err = r.Index.ReplaceSource(ctx, doc.Filename, embedded)
	if isDimensionMismatch(err) {
		if rerr := r.resetIndex(ctx, gen, err); rerr != nil {
			return nil, apperr.Internal(msgProcessFailed, rerr)
		}
		err = r.Index.ReplaceSource(ctx, doc.Filename, embedded)
	}
	if err != nil {
		return nil, apperr.Internal(msgProcessFailed, err)
	}

	if err := r.Documents.MarkDocumentProcessed(ctx, doc.ID, len(chunks)); err != nil {
		return nil, apperr.Internal(msgProcessFailed, err)
	}
	logger.Info().Int("pages", len(pages)).Int("chunks", len(chunks)).Msg("Document processed")
	return &ProcessResult{Message: msgProcessed, Filename: filename, Chunks: len(chunks)}, nil
}

// stillIndexed checks that a document flagged as processed really has its
// chunks in a healthy, non-empty index. A dimension mismatch found here
// resets the index and the document is processed again; only a failed reset
// is returned as an error.
func (r *RAG) stillIndexed(ctx context.Context, doc *db.Document) (bool, error) {
	logger := log.Ctx(ctx)
	gen := r.Index.Generation()
	n, err := r.Index.Count(ctx)
	if isDimensionMismatch(err) {
		return false, r.resetIndex(ctx, gen, err)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to verify vector index")
		return false, nil
	}
	if n == 0 {
		return false, nil
	}
	if !r.Index.HasSource(doc.Filename) {
		logger.Warn().Str("filename", doc.Filename).Msg("Document marked processed but its chunks are not indexed")
		return false, nil
	}
	return true, nil
}

// restoreIfMissing returns the PDF bytes, rewriting the content file from
// the database backup when it has gone missing.
func (r *RAG) restoreIfMissing(ctx context.Context, doc *db.Document) ([]byte, error) {
	exists, err := r.Files.Exists(ctx, doc.Filename)
	if err != nil {
		return nil, apperr.Internal(msgProcessFailed, err)
	}
	if exists {
		data, err := r.Files.Read(ctx, doc.Filename)
		if err != nil {
			return nil, apperr.Internal(msgProcessFailed, err)
		}
		return data, nil
	}
	if len(doc.Content) == 0 {
		return nil, apperr.New(apperr.ErrNotFound, msgFileUnrecovered)
	}
	if _, err := r.Files.Save(ctx, doc.Filename, doc.Content); err != nil {
		return nil, apperr.Internal(msgProcessFailed, err)
	}
	log.Ctx(ctx).Info().Str("filename", doc.Filename).Msg("Restored document file from database backup")
	return doc.Content, nil
}
