package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"legal-ai/internal/apperr"
	"legal-ai/internal/db"
	"legal-ai/internal/models"
)

const multipartOverhead = 1 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, _ *db.User) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, r, apperr.New(apperr.ErrInvalidInput,
			fmt.Sprintf("Arquivo muito grande (máximo %dMB)", s.maxUploadBytes>>20)))
		return
	case errors.Is(err, http.ErrMissingFile):
		writeError(w, r, s.pipeline.ValidateUpload("", 0))
		return
	case err != nil:
		writeError(w, r, apperr.Wrap(apperr.ErrInvalidInput, msgInvalidBody, err))
		return
	}
	defer file.Close()

	if err := s.pipeline.ValidateUpload(header.Filename, header.Size); err != nil {
		writeError(w, r, err)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, apperr.Internal("Erro ao salvar", err))
		return
	}
	doc, err := s.pipeline.Upload(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentResponse{
		ID:           doc.ID,
		Filename:     doc.Filename,
		OriginalName: doc.OriginalName,
		Path:         doc.Path,
		Preprocessed: doc.Preprocessed,
		ChunkCount:   doc.ChunkCount,
		CreatedAt:    doc.CreatedAt,
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request, _ *db.User) {
	res, err := s.pipeline.Process(r.Context(), r.PathValue("filename"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ProcessResponse{
		Message:   res.Message,
		Filename:  res.Filename,
		NumChunks: res.Chunks,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request, _ *db.User) {
	names, err := s.pipeline.ListDocuments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DocumentListResponse{Documents: names, Total: len(names)})
}
